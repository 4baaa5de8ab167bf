package httpapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mvaldes/encore/internal/app"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/http/dto"
	"github.com/mvaldes/encore/internal/listening"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/recommend"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/suggest"
	"github.com/mvaldes/encore/internal/sync"
)

type testEnv struct {
	server       *httptest.Server
	db           *store.DB
	orchestrator *sync.Orchestrator
}

func newTestEnv(t *testing.T, services ...listening.Service) *testEnv {
	t.Helper()

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	artists := []domain.CatalogArtist{
		{ID: "ar1", Name: "The Beatles", NormName: "the beatles", Genres: domain.StringSlice{"rock"}, Popularity: 95, PeakDecade: 1960, SongCount: 2},
		{ID: "ar2", Name: "Queen", NormName: "queen", Genres: domain.StringSlice{"rock"}, Popularity: 92, PeakDecade: 1970, SongCount: 1},
		{ID: "ar3", Name: "Nirvana", NormName: "nirvana", Genres: domain.StringSlice{"grunge"}, Popularity: 88, PeakDecade: 1990, SongCount: 1},
	}
	for i := range artists {
		if err := db.InsertCatalogArtist(&artists[i]); err != nil {
			t.Fatalf("InsertCatalogArtist failed: %v", err)
		}
	}
	songs := []domain.CatalogSong{
		{ID: "s1", ArtistID: "ar1", Artist: "The Beatles", Title: "Hey Jude", NormArtist: "the beatles", NormTitle: "hey jude", Decade: 1960, Genres: domain.StringSlice{"rock"}, Popularity: 97, BrandCount: 9},
		{ID: "s2", ArtistID: "ar1", Artist: "The Beatles", Title: "Let It Be", NormArtist: "the beatles", NormTitle: "let it be", Decade: 1970, Genres: domain.StringSlice{"rock"}, Popularity: 94, BrandCount: 8},
		{ID: "s3", ArtistID: "ar2", Artist: "Queen", Title: "Bohemian Rhapsody", NormArtist: "queen", NormTitle: "bohemian rhapsody", Decade: 1970, Genres: domain.StringSlice{"rock"}, Popularity: 98, BrandCount: 10},
	}
	for i := range songs {
		if err := db.InsertCatalogSong(&songs[i]); err != nil {
			t.Fatalf("InsertCatalogSong failed: %v", err)
		}
	}

	log := logger.Default()
	m := matcher.New(db)
	orch := sync.NewOrchestrator(db, db, m, services, log)

	engine, err := recommend.NewEngine(db, recommend.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	settings := store.NewSettingsRepo(db)

	h := NewHandler(
		app.NewSyncService(db, orch, log),
		app.NewRecommendService(db, db, engine, settings, log),
		app.NewSuggestService(suggest.NewEngine(db, db, m, 0, 0, log)),
		app.NewQuizService(db, db, m, settings, log),
		settings,
		log,
	)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, orchestrator: orch}
}

func doJSON(t *testing.T, e *testEnv, method, path, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	var body map[string]string
	code := doJSON(t, e, http.MethodGet, "/api/health", "", &body)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
	if _, ok := body["catalog_version"]; ok {
		t.Error("Expected no catalog_version before a catalog load is stamped")
	}

	if err := store.NewSettingsRepo(e.db).Set(store.SettingCatalogVersion, "2026-08"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	code = doJSON(t, e, http.MethodGet, "/api/health", "", &body)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["catalog_version"] != "2026-08" {
		t.Errorf("Expected catalog_version 2026-08, got %q", body["catalog_version"])
	}
}

func TestStartSyncConflict(t *testing.T) {
	svc := &listening.MockService{ServiceName: "spotify"}
	e := newTestEnv(t, svc)

	var job dto.SyncJobResponse
	code := doJSON(t, e, http.MethodPost, "/api/users/u1/sync", "", &job)
	if code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}
	if job.Status != string(domain.SyncStatusPending) {
		t.Errorf("Expected pending status, got %q", job.Status)
	}
	if job.UserID != "u1" {
		t.Errorf("Expected user u1, got %q", job.UserID)
	}

	var errBody map[string]string
	code = doJSON(t, e, http.MethodPost, "/api/users/u1/sync", "", &errBody)
	if code != http.StatusConflict {
		t.Fatalf("Expected 409 for second sync, got %d", code)
	}
	if errBody["error"] == "" {
		t.Error("Expected error message in conflict response")
	}

	// A different user is not blocked.
	code = doJSON(t, e, http.MethodPost, "/api/users/u2/sync", "", nil)
	if code != http.StatusAccepted {
		t.Errorf("Expected 202 for other user, got %d", code)
	}
}

func TestSyncStatus(t *testing.T) {
	svc := &listening.MockService{
		ServiceName: "spotify",
		Pages: [][]domain.RawListeningEvent{
			{
				{Artist: "The Beatles", Title: "Hey Jude", PlayCount: 3},
				{Artist: "Queen", Title: "Bohemian Rhapsody", PlayCount: 1},
			},
		},
	}
	e := newTestEnv(t, svc)

	var errBody map[string]string
	code := doJSON(t, e, http.MethodGet, "/api/users/u1/sync/status", "", &errBody)
	if code != http.StatusNotFound {
		t.Fatalf("Expected 404 before any sync, got %d", code)
	}

	var created dto.SyncJobResponse
	if code := doJSON(t, e, http.MethodPost, "/api/users/u1/sync", "", &created); code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}

	job, err := e.db.GetSyncJob(created.ID)
	if err != nil {
		t.Fatalf("GetSyncJob failed: %v", err)
	}
	e.orchestrator.RunJob(context.Background(), job)

	var status dto.SyncJobResponse
	code = doJSON(t, e, http.MethodGet, "/api/users/u1/sync/status", "", &status)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if status.Status != string(domain.SyncStatusCompleted) {
		t.Errorf("Expected completed, got %q", status.Status)
	}
	if status.Percent != 100 {
		t.Errorf("Expected percent 100, got %v", status.Percent)
	}
	if len(status.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(status.Results))
	}
	if status.Results[0].Service != "spotify" || status.Results[0].TracksMatched != 2 {
		t.Errorf("Unexpected result: %+v", status.Results[0])
	}
	if status.CompletedAt == "" {
		t.Error("Expected completed_at to be set")
	}
}

func TestSyncHistoryAndStats(t *testing.T) {
	svc := &listening.MockService{ServiceName: "spotify"}
	e := newTestEnv(t, svc)

	var created dto.SyncJobResponse
	if code := doJSON(t, e, http.MethodPost, "/api/users/u1/sync", "", &created); code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", code)
	}
	job, err := e.db.GetSyncJob(created.ID)
	if err != nil {
		t.Fatalf("GetSyncJob failed: %v", err)
	}
	e.orchestrator.RunJob(context.Background(), job)

	var history struct {
		Jobs []dto.SyncJobResponse `json:"jobs"`
	}
	code := doJSON(t, e, http.MethodGet, "/api/users/u1/sync/history", "", &history)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(history.Jobs) != 1 {
		t.Fatalf("Expected 1 finished job, got %d", len(history.Jobs))
	}

	var stats map[string]int
	code = doJSON(t, e, http.MethodGet, "/api/sync/stats", "", &stats)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if stats["total"] != 1 || stats["completed"] != 1 {
		t.Errorf("Unexpected stats: %v", stats)
	}

	if code := doJSON(t, e, http.MethodPost, "/api/sync/history/clear", "", nil); code != http.StatusOK {
		t.Fatalf("Expected 200 from clear, got %d", code)
	}
	code = doJSON(t, e, http.MethodGet, "/api/users/u1/sync/history", "", &history)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(history.Jobs) != 0 {
		t.Errorf("Expected empty history after clear, got %d jobs", len(history.Jobs))
	}
}

func TestRecommendationsColdStart(t *testing.T) {
	e := newTestEnv(t)

	var buckets domain.RecommendationBuckets
	code := doJSON(t, e, http.MethodGet, "/api/users/unknown/recommendations", "", &buckets)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(buckets.FromArtistsYouKnow) != 0 {
		t.Errorf("Expected no known-artist picks for a new user, got %d", len(buckets.FromArtistsYouKnow))
	}
	if len(buckets.CrowdPleasers) == 0 {
		t.Error("Expected crowd pleasers for a new user")
	}
}

func TestRecommendationsInvalidFilters(t *testing.T) {
	e := newTestEnv(t)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	code := doJSON(t, e, http.MethodGet, "/api/users/u1/recommendations?min_popularity=abc", "", &body)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", code)
	}
	if body.Fields["min_popularity"] == "" {
		t.Errorf("Expected min_popularity validation error, got %v", body.Fields)
	}

	code = doJSON(t, e, http.MethodGet, "/api/users/u1/recommendations?decade=1973", "", &body)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-decade year, got %d", code)
	}
}

func TestQuizConfirmEndpoint(t *testing.T) {
	e := newTestEnv(t)

	var result app.QuizResult
	code := doJSON(t, e, http.MethodPost, "/api/users/u1/quiz/confirm",
		`{"selected_artist_ids":["ar1"],"enjoyed_songs":[{"artist":"Queen","title":"Bohemian Rhapsody"}],"genres":["rock"],"decades":[1970]}`,
		&result)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if result.ArtistsStored != 1 || result.SongsStored != 1 {
		t.Errorf("Unexpected quiz result: %+v", result)
	}

	arts, err := e.db.GetUserArtists("u1")
	if err != nil {
		t.Fatalf("GetUserArtists failed: %v", err)
	}
	if len(arts) != 2 {
		t.Errorf("Expected 2 user artists (selected + song parent), got %d", len(arts))
	}
}

func TestQuizConfirmValidation(t *testing.T) {
	e := newTestEnv(t)

	code := doJSON(t, e, http.MethodPost, "/api/users/u1/quiz/confirm", `{}`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for empty confirmation, got %d", code)
	}

	code = doJSON(t, e, http.MethodPost, "/api/users/u1/quiz/confirm", `{not json`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for malformed body, got %d", code)
	}
}

func TestSuggestionsEndpoints(t *testing.T) {
	e := newTestEnv(t)

	var batch domain.SuggestionBatch
	code := doJSON(t, e, http.MethodPost, "/api/suggestions/initial",
		`{"user_id":"u1","genres":["rock"]}`, &batch)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(batch.Artists) == 0 {
		t.Fatal("Expected at least one suggestion")
	}

	shown := make([]string, 0, len(batch.Artists))
	for _, a := range batch.Artists {
		shown = append(shown, a.Artist.ID)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":       "u1",
		"genres":        []string{"rock"},
		"already_shown": shown,
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var more domain.SuggestionBatch
	code = doJSON(t, e, http.MethodPost, "/api/suggestions/more", string(payload), &more)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	for _, a := range more.Artists {
		for _, id := range shown {
			if a.Artist.ID == id {
				t.Errorf("Artist %s repeated across batches", id)
			}
		}
	}

	code = doJSON(t, e, http.MethodPost, "/api/suggestions/initial", `{"genres":["rock"]}`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without user_id, got %d", code)
	}
}
