package worker

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/sync"
)

// Worker polls for pending sync jobs and hands them to the
// orchestrator, running at most MaxConcurrent jobs at a time.
type Worker struct {
	Store         *store.DB
	Orchestrator  *sync.Orchestrator
	MaxConcurrent int
	Logger        *logger.Logger

	pollInterval time.Duration
	running      map[string]bool
	mu           stdsync.Mutex
	wg           stdsync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewWorker(db *store.DB, orchestrator *sync.Orchestrator, maxConcurrent int, log *logger.Logger) *Worker {
	if maxConcurrent <= 0 {
		maxConcurrent = constants.DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		Store:         db,
		Orchestrator:  orchestrator,
		MaxConcurrent: maxConcurrent,
		Logger:        log.WithComponent("worker"),
		pollInterval:  constants.DefaultPollInterval,
		running:       make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SetPollInterval overrides how often the worker checks for pending
// jobs. Tests shorten it.
func (w *Worker) SetPollInterval(d time.Duration) {
	if d > 0 {
		w.pollInterval = d
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting worker", "max_concurrent", w.MaxConcurrent)

	// Jobs interrupted by a crash or restart go back to pending
	if err := w.Store.ResetStuckSyncJobs(); err != nil {
		w.Logger.Error("Failed to reset stuck jobs", "error", err)
	}

	w.wg.Add(1)
	go w.pollLoop()
}

// Stop cancels the poll loop and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) pollLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.dispatchPending()
		}
	}
}

func (w *Worker) dispatchPending() {
	jobs, err := w.Store.ListPendingSyncJobs()
	if err != nil {
		w.Logger.Error("Failed to list pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		w.mu.Lock()
		if len(w.running) >= w.MaxConcurrent || w.running[job.ID] {
			w.mu.Unlock()
			continue
		}
		w.running[job.ID] = true
		w.mu.Unlock()

		w.wg.Add(1)
		go func(j *domain.SyncJob) {
			defer w.wg.Done()
			defer func() {
				w.mu.Lock()
				delete(w.running, j.ID)
				w.mu.Unlock()
			}()
			w.runJob(j)
		}(job)
	}
}

func (w *Worker) runJob(job *domain.SyncJob) {
	defer func() {
		if r := recover(); r != nil {
			w.Logger.Error("Panic in sync job", "job_id", job.ID, "panic", r)
			msg := fmt.Sprintf("panic: %v", r)
			if err := w.Store.FinishSyncJob(job.ID, domain.SyncStatusFailed, &msg); err != nil {
				w.Logger.Error("Failed to fail panicked job", "job_id", job.ID, "error", err)
			}
		}
	}()

	w.Orchestrator.RunJob(w.ctx, job)
}
