package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/listening"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
)

// ErrSyncAlreadyRunning is returned by StartSync when the user already
// has a pending or in-progress job.
var ErrSyncAlreadyRunning = errors.New("a sync is already running for this user")

// Orchestrator executes sync jobs: it walks every configured listening
// service in order, matches fetched events against the catalog and
// folds them into the user's taste records. Service failures are
// isolated; the job succeeds if at least one service completed.
type Orchestrator struct {
	store    *store.DB
	index    catalog.Index
	matcher  *matcher.Matcher
	services []listening.Service
	log      *logger.Logger

	serviceBudget time.Duration
	maxPages      int
}

func NewOrchestrator(db *store.DB, index catalog.Index, m *matcher.Matcher, services []listening.Service, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:         db,
		index:         index,
		matcher:       m,
		services:      services,
		log:           log.WithComponent("sync"),
		serviceBudget: constants.DefaultServiceBudget,
		maxPages:      constants.DefaultMaxSyncPages,
	}
}

// SetServiceBudget overrides the per-service time budget. Used by tests
// and by deployments with slow upstreams.
func (o *Orchestrator) SetServiceBudget(d time.Duration) {
	if d > 0 {
		o.serviceBudget = d
	}
}

// StartSync enqueues a job for the user. At most one job per user may
// be active; a second request is rejected, never coalesced.
func (o *Orchestrator) StartSync(userID string) (*domain.SyncJob, error) {
	active, err := o.store.GetActiveSyncJobByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active sync: %w", err)
	}
	if active != nil {
		return nil, ErrSyncAlreadyRunning
	}

	job := &domain.SyncJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    domain.SyncStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := o.store.CreateSyncJob(job); err != nil {
		// The partial unique index closes the race between the
		// pre-check and the insert.
		if errors.Is(err, store.ErrActiveSyncExists) {
			return nil, ErrSyncAlreadyRunning
		}
		return nil, err
	}

	o.log.Info("Sync job enqueued", "job_id", job.ID, "user_id", userID)
	return job, nil
}

// GetStatus returns the user's most recent job with its per-service
// results, or nil when the user never synced.
func (o *Orchestrator) GetStatus(userID string) (*domain.SyncJob, error) {
	job, err := o.store.GetLatestSyncJobByUser(userID)
	if err != nil || job == nil {
		return nil, err
	}
	results, err := o.store.GetSyncResults(job.ID)
	if err != nil {
		return nil, err
	}
	job.Results = results
	return job, nil
}

// RunJob drives one job through its full lifecycle. Called by the
// worker, or directly by tests.
func (o *Orchestrator) RunJob(ctx context.Context, job *domain.SyncJob) {
	log := o.log.WithJob(job.ID, job.UserID)

	if err := o.store.UpdateSyncJobStatus(job.ID, domain.SyncStatusInProgress); err != nil {
		log.Error("Failed to mark job in progress", "error", err)
		return
	}

	if len(o.services) == 0 {
		msg := "no listening services configured"
		log.Warn("Sync job has nothing to do")
		if err := o.store.FinishSyncJob(job.ID, domain.SyncStatusFailed, &msg); err != nil {
			log.Error("Failed to finish job", "error", err)
		}
		return
	}

	progress := domain.SyncProgress{}
	succeeded := 0
	var firstErr string

	for i, svc := range o.services {
		result := o.runService(ctx, job, svc, i, &progress, log)
		if err := o.store.AppendSyncResult(result); err != nil {
			log.Error("Failed to record service result", "service", svc.Name(), "error", err)
		}
		if result.Error == "" {
			succeeded++
		} else if firstErr == "" {
			firstErr = fmt.Sprintf("%s: %s", svc.Name(), result.Error)
		}
	}

	if succeeded > 0 {
		if err := o.store.FinishSyncJob(job.ID, domain.SyncStatusCompleted, nil); err != nil {
			log.Error("Failed to finish job", "error", err)
			return
		}
		log.Info("Sync job completed",
			"services_succeeded", succeeded,
			"events_processed", progress.ProcessedEvents,
			"events_matched", progress.MatchedEvents)
		return
	}

	if err := o.store.FinishSyncJob(job.ID, domain.SyncStatusFailed, &firstErr); err != nil {
		log.Error("Failed to finish job", "error", err)
		return
	}
	log.Warn("Sync job failed", "error", firstErr)
}

func (o *Orchestrator) runService(ctx context.Context, job *domain.SyncJob, svc listening.Service, pos int, progress *domain.SyncProgress, log *logger.Logger) *domain.SyncResult {
	result := &domain.SyncResult{
		JobID:    job.ID,
		Service:  svc.Name(),
		Position: pos,
	}

	ctx, cancel := context.WithTimeout(ctx, o.serviceBudget)
	defer cancel()

	base := float64(pos) / float64(len(o.services)) * 100
	span := 100.0 / float64(len(o.services))

	// Running per-artist play totals for this service run. Distinct
	// songs by one artist must add up, while a re-sync of the same
	// service replays the same totals and merges as a no-op.
	artistPlays := make(map[string]int)

	cursor := ""
	for page := 0; page < o.maxPages; page++ {
		// Until the cursor runs out we cannot know the page count,
		// so the in-service fraction approaches but never reaches
		// the span; the store clamps regressions anyway.
		fraction := float64(page) / float64(o.maxPages)
		if fraction > 0.95 {
			fraction = 0.95
		}
		o.updateProgress(job.ID, svc.Name(), domain.SyncPhaseFetching, progress, base+span*fraction)

		events, next, err := svc.FetchPage(ctx, cursor)
		if err != nil {
			result.Error = err.Error()
			log.Warn("Service page fetch failed", "service", svc.Name(), "page", page, "error", err)
			return result
		}

		result.TracksFetched += len(events)
		progress.TotalEvents += len(events)

		o.updateProgress(job.ID, svc.Name(), domain.SyncPhaseMatching, progress, base+span*fraction)

		matched := make([]matchedEvent, 0, len(events))
		for _, ev := range events {
			progress.ProcessedEvents++
			m, ok := o.matcher.MatchSong(ev.Artist, ev.Title)
			if !ok {
				continue
			}
			progress.MatchedEvents++
			result.TracksMatched++
			matched = append(matched, matchedEvent{event: ev, song: m.Song})
		}

		o.updateProgress(job.ID, svc.Name(), domain.SyncPhasePersisting, progress, base+span*fraction)

		if err := o.persistPage(job.UserID, matched, artistPlays, result); err != nil {
			result.Error = err.Error()
			log.Error("Failed to persist page", "service", svc.Name(), "page", page, "error", err)
			return result
		}

		if next == "" {
			break
		}
		cursor = next
	}

	o.updateProgress(job.ID, svc.Name(), domain.SyncPhasePersisting, progress, base+span)
	log.Info("Service sync finished",
		"service", svc.Name(),
		"fetched", result.TracksFetched,
		"matched", result.TracksMatched)
	return result
}

type matchedEvent struct {
	event domain.RawListeningEvent
	song  domain.CatalogSong
}

func (o *Orchestrator) persistPage(userID string, matched []matchedEvent, artistPlays map[string]int, result *domain.SyncResult) error {
	for _, m := range matched {
		obs := store.TasteObservation{
			Source:    m.event.Service,
			PlayCount: m.event.PlayCount,
			Saved:     m.event.Saved,
		}
		if !m.event.PlayedAt.IsZero() {
			playedAt := m.event.PlayedAt
			obs.PlayedAt = &playedAt
		}

		created, err := o.store.UpsertUserSong(userID, &m.song, obs)
		if err != nil {
			return fmt.Errorf("failed to store song taste record: %w", err)
		}
		if created {
			result.RecordsCreated++
		} else {
			result.RecordsUpdated++
		}

		artist, err := o.index.GetCatalogArtist(m.song.ArtistID)
		if err != nil {
			return fmt.Errorf("failed to load catalog artist: %w", err)
		}
		if artist == nil {
			continue
		}

		// The artist observation carries the running service total so
		// every song of the artist contributes to the count.
		artistPlays[artist.ID] += m.event.PlayCount
		artistObs := obs
		artistObs.PlayCount = artistPlays[artist.ID]
		artistCreated, err := o.store.UpsertUserArtist(userID, artist, artistObs)
		if err != nil {
			return fmt.Errorf("failed to store artist taste record: %w", err)
		}
		if artistCreated {
			result.ArtistsStored++
		}
	}
	return nil
}

func (o *Orchestrator) updateProgress(jobID, service string, phase domain.SyncPhase, progress *domain.SyncProgress, percent float64) {
	progress.CurrentService = service
	progress.CurrentPhase = phase
	progress.Percent = percent
	if err := o.store.UpdateSyncJobProgress(jobID, *progress); err != nil {
		o.log.Error("Failed to update progress", "job_id", jobID, "error", err)
	}
}
