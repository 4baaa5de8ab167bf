package app

import (
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/sync"
)

// SyncService fronts the orchestrator for the HTTP layer and adds the
// job-history reads that do not belong on the orchestrator itself.
type SyncService struct {
	Repo         *store.DB
	Orchestrator *sync.Orchestrator
	Logger       *logger.Logger
}

func NewSyncService(repo *store.DB, orchestrator *sync.Orchestrator, log *logger.Logger) *SyncService {
	return &SyncService{Repo: repo, Orchestrator: orchestrator, Logger: log}
}

// StartSync enqueues a job; the worker picks it up.
func (s *SyncService) StartSync(userID string) (*domain.SyncJob, error) {
	return s.Orchestrator.StartSync(userID)
}

func (s *SyncService) GetStatus(userID string) (*domain.SyncJob, error) {
	return s.Orchestrator.GetStatus(userID)
}

func (s *SyncService) History(userID string) ([]*domain.SyncJob, error) {
	return s.Repo.ListFinishedSyncJobs(userID, constants.FinishedJobsPageLimit)
}

func (s *SyncService) Stats() (*store.SyncJobStats, error) {
	return s.Repo.GetSyncJobStats()
}

func (s *SyncService) ClearHistory() error {
	s.Logger.Info("Clearing finished sync jobs")
	return s.Repo.ClearFinishedSyncJobs()
}
