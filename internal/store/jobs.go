package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mvaldes/encore/internal/domain"
)

// ErrActiveSyncExists is returned when a sync job is created for a user who
// already has a pending or in_progress job.
var ErrActiveSyncExists = errors.New("an active sync job already exists for this user")

type syncJobRow struct {
	ID              string           `db:"id"`
	UserID          string           `db:"user_id"`
	Status          string           `db:"status"`
	CurrentService  string           `db:"current_service"`
	CurrentPhase    string           `db:"current_phase"`
	TotalEvents     int              `db:"total_events"`
	ProcessedEvents int              `db:"processed_events"`
	MatchedEvents   int              `db:"matched_events"`
	Percent         float64          `db:"percent"`
	Error           sql.NullString   `db:"error"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
	CompletedAt     sql.NullTime     `db:"completed_at"`
}

func (r *syncJobRow) toDomain() *domain.SyncJob {
	job := &domain.SyncJob{
		ID:     r.ID,
		UserID: r.UserID,
		Status: domain.SyncStatus(r.Status),
		Progress: domain.SyncProgress{
			CurrentService:  r.CurrentService,
			CurrentPhase:    domain.SyncPhase(r.CurrentPhase),
			TotalEvents:     r.TotalEvents,
			ProcessedEvents: r.ProcessedEvents,
			MatchedEvents:   r.MatchedEvents,
			Percent:         r.Percent,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Error.Valid {
		msg := r.Error.String
		job.Error = &msg
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job
}

const syncJobColumns = `id, user_id, status, current_service, current_phase,
	total_events, processed_events, matched_events, percent, error,
	created_at, updated_at, completed_at`

func (db *DB) CreateSyncJob(job *domain.SyncJob) error {
	query := `INSERT INTO sync_jobs (id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := db.Exec(query, job.ID, job.UserID, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrActiveSyncExists
	}
	return err
}

func (db *DB) GetSyncJob(id string) (*domain.SyncJob, error) {
	var row syncJobRow
	err := db.Get(&row, `SELECT `+syncJobColumns+` FROM sync_jobs WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetActiveSyncJobByUser returns the user's pending or in_progress job, or
// nil when none is active.
func (db *DB) GetActiveSyncJobByUser(userID string) (*domain.SyncJob, error) {
	var row syncJobRow
	err := db.Get(&row, `SELECT `+syncJobColumns+` FROM sync_jobs
		WHERE user_id = ? AND status IN ('pending', 'in_progress') LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetLatestSyncJobByUser returns the user's newest job regardless of status,
// or nil when the user has never synced.
func (db *DB) GetLatestSyncJobByUser(userID string) (*domain.SyncJob, error) {
	var row syncJobRow
	err := db.Get(&row, `SELECT `+syncJobColumns+` FROM sync_jobs
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (db *DB) UpdateSyncJobStatus(id string, status domain.SyncStatus) error {
	query := `UPDATE sync_jobs SET status = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, status, time.Now(), id)
	return err
}

// UpdateSyncJobProgress writes the progress sub-record. The percentage is
// clamped so a polled value never decreases within a job.
func (db *DB) UpdateSyncJobProgress(id string, p domain.SyncProgress) error {
	query := `UPDATE sync_jobs SET
		current_service = ?, current_phase = ?,
		total_events = ?, processed_events = ?, matched_events = ?,
		percent = MAX(percent, ?), updated_at = ?
		WHERE id = ?`
	_, err := db.Exec(query, p.CurrentService, p.CurrentPhase,
		p.TotalEvents, p.ProcessedEvents, p.MatchedEvents,
		p.Percent, time.Now(), id)
	return err
}

// FinishSyncJob records a terminal status. errMsg is nil on success.
func (db *DB) FinishSyncJob(id string, status domain.SyncStatus, errMsg *string) error {
	now := time.Now()
	query := `UPDATE sync_jobs SET status = ?, error = ?, percent = MAX(percent, ?), updated_at = ?, completed_at = ? WHERE id = ?`
	percent := 100.0
	if status == domain.SyncStatusFailed {
		percent = 0
	}
	_, err := db.Exec(query, status, errMsg, percent, now, now, id)
	return err
}

func (db *DB) AppendSyncResult(res *domain.SyncResult) error {
	query := `INSERT INTO sync_results (job_id, service, position, tracks_fetched, tracks_matched,
		records_created, records_updated, artists_stored, error)
		VALUES (:job_id, :service, :position, :tracks_fetched, :tracks_matched,
		:records_created, :records_updated, :artists_stored, :error)`

	_, err := db.NamedExec(query, res)
	return err
}

func (db *DB) GetSyncResults(jobID string) ([]domain.SyncResult, error) {
	query := `SELECT id, job_id, service, position, tracks_fetched, tracks_matched,
		records_created, records_updated, artists_stored, error
		FROM sync_results WHERE job_id = ? ORDER BY position ASC, id ASC`

	var results []domain.SyncResult
	err := db.Select(&results, query, jobID)
	return results, err
}

func (db *DB) ListFinishedSyncJobs(userID string, limit int) ([]*domain.SyncJob, error) {
	var rows []syncJobRow
	err := db.Select(&rows, `SELECT `+syncJobColumns+` FROM sync_jobs
		WHERE user_id = ? AND status IN ('completed', 'failed')
		ORDER BY updated_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.SyncJob, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, rows[i].toDomain())
	}
	return jobs, nil
}

// ResetStuckSyncJobs requeues jobs left in_progress by an unclean shutdown.
func (db *DB) ResetStuckSyncJobs() error {
	query := `UPDATE sync_jobs SET status = ?, updated_at = ? WHERE status = 'in_progress'`
	_, err := db.Exec(query, domain.SyncStatusPending, time.Now())
	return err
}

func (db *DB) ListPendingSyncJobs() ([]*domain.SyncJob, error) {
	var rows []syncJobRow
	err := db.Select(&rows, `SELECT `+syncJobColumns+` FROM sync_jobs
		WHERE status = 'pending' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.SyncJob, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, rows[i].toDomain())
	}
	return jobs, nil
}

func (db *DB) ClearFinishedSyncJobs() error {
	if _, err := db.Exec(`DELETE FROM sync_results WHERE job_id IN
		(SELECT id FROM sync_jobs WHERE status IN ('completed', 'failed'))`); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM sync_jobs WHERE status IN ('completed', 'failed')`)
	return err
}

type SyncJobStats struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
	Failed    int `db:"failed"`
}

func (db *DB) GetSyncJobStats() (*SyncJobStats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed
	FROM sync_jobs
	WHERE status IN ('completed', 'failed')`

	stats := &SyncJobStats{}
	err := db.Get(stats, query)
	return stats, err
}
