package worker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/listening"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/sync"
)

func newTestWorker(t *testing.T, services ...listening.Service) (*Worker, *sync.Orchestrator, *store.DB) {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	artist := domain.CatalogArtist{ID: "ar1", Name: "Queen", NormName: "queen", Popularity: 92, SongCount: 1}
	if err := db.InsertCatalogArtist(&artist); err != nil {
		t.Fatalf("InsertCatalogArtist failed: %v", err)
	}
	song := domain.CatalogSong{ID: "s1", ArtistID: "ar1", Artist: "Queen", Title: "Bohemian Rhapsody", NormArtist: "queen", NormTitle: "bohemian rhapsody", Popularity: 98, BrandCount: 10}
	if err := db.InsertCatalogSong(&song); err != nil {
		t.Fatalf("InsertCatalogSong failed: %v", err)
	}

	o := sync.NewOrchestrator(db, db, matcher.New(db), services, logger.Default())
	w := NewWorker(db, o, 2, logger.Default())
	w.SetPollInterval(20 * time.Millisecond)
	return w, o, db
}

func waitForTerminal(t *testing.T, o *sync.Orchestrator, userID string) *domain.SyncJob {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for job to finish")
		case <-time.After(20 * time.Millisecond):
			job, err := o.GetStatus(userID)
			if err != nil {
				t.Fatalf("GetStatus failed: %v", err)
			}
			if job != nil && job.Status.Terminal() {
				return job
			}
		}
	}
}

func TestWorkerRunsPendingJob(t *testing.T) {
	svc := &listening.MockService{
		ServiceName: "spotify",
		Pages: [][]domain.RawListeningEvent{
			{{Service: "spotify", Artist: "Queen", Title: "Bohemian Rhapsody", PlayCount: 3}},
		},
	}
	w, o, db := newTestWorker(t, svc)

	job, err := o.StartSync("u1")
	if err != nil {
		t.Fatalf("StartSync failed: %v", err)
	}

	w.Start()
	defer w.Stop()

	finished := waitForTerminal(t, o, "u1")
	if finished.ID != job.ID {
		t.Errorf("Expected job %s, got %s", job.ID, finished.ID)
	}
	if finished.Status != domain.SyncStatusCompleted {
		t.Errorf("Expected completed, got %s (error %v)", finished.Status, finished.Error)
	}

	songs, _ := db.GetUserSongs("u1")
	if len(songs) != 1 {
		t.Errorf("Expected 1 taste record, got %d", len(songs))
	}
}

func TestWorkerResetsStuckJobsOnStart(t *testing.T) {
	svc := &listening.MockService{
		ServiceName: "spotify",
		Pages:       [][]domain.RawListeningEvent{{}},
	}
	w, o, db := newTestWorker(t, svc)

	// Simulate a job orphaned by a crash
	job, err := o.StartSync("u1")
	if err != nil {
		t.Fatalf("StartSync failed: %v", err)
	}
	if err := db.UpdateSyncJobStatus(job.ID, domain.SyncStatusInProgress); err != nil {
		t.Fatalf("UpdateSyncJobStatus failed: %v", err)
	}

	w.Start()
	defer w.Stop()

	finished := waitForTerminal(t, o, "u1")
	if !finished.Status.Terminal() {
		t.Errorf("Expected orphaned job to be picked up and finished, got %s", finished.Status)
	}
}
