package app

import (
	"path/filepath"
	"testing"

	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	artists := []domain.CatalogArtist{
		{ID: "ar1", Name: "The Beatles", NormName: "the beatles", Genres: domain.StringSlice{"rock"}, Popularity: 95, PeakDecade: 1960, SongCount: 1},
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
		{ID: "s2", ArtistID: "ar2", Artist: "Queen", Title: "Bohemian Rhapsody", NormArtist: "queen", NormTitle: "bohemian rhapsody", Decade: 1970, Genres: domain.StringSlice{"rock"}, Popularity: 98, BrandCount: 10},
	}
	for i := range songs {
		if err := db.InsertCatalogSong(&songs[i]); err != nil {
			t.Fatalf("InsertCatalogSong failed: %v", err)
		}
	}
	return db
}

func newQuizService(t *testing.T, db *store.DB) *QuizService {
	t.Helper()
	return NewQuizService(db, db, matcher.New(db), store.NewSettingsRepo(db), logger.Default())
}

func TestQuizConfirm(t *testing.T) {
	db := newTestDB(t)
	s := newQuizService(t, db)

	result, err := s.Confirm("u1", domain.QuizConfirmation{
		SelectedArtistIDs: []string{"ar1", "ar3"},
		EnjoyedSongs: []domain.QuizSong{
			{Artist: "Queen", Title: "Bohemian Rhapsody"},
			{Artist: "Nobody Knows This Band", Title: "Missing"},
		},
		Genres:  []string{"rock"},
		Decades: []int{1970},
	})
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if result.ArtistsStored != 2 {
		t.Errorf("Expected 2 artists stored, got %d", result.ArtistsStored)
	}
	if result.SongsStored != 1 {
		t.Errorf("Expected 1 song stored, got %d", result.SongsStored)
	}
	if result.SongsSkipped != 1 {
		t.Errorf("Expected 1 song skipped, got %d", result.SongsSkipped)
	}

	artists, _ := db.GetUserArtists("u1")
	// ar1, ar3 selected plus ar2 via the enjoyed song
	if len(artists) != 3 {
		t.Fatalf("Expected 3 taste artists, got %d", len(artists))
	}
	for _, a := range artists {
		if a.Sources["quiz"] == 0 {
			t.Errorf("Expected quiz source on %s, got %v", a.ArtistID, a.Sources)
		}
	}

	songs, _ := db.GetUserSongs("u1")
	if len(songs) != 1 || songs[0].SongID != "s2" {
		t.Fatalf("Expected s2 taste record, got %+v", songs)
	}
	if !songs[0].Saved {
		t.Error("Expected quiz songs marked saved")
	}
}

func TestQuizConfirmThenSyncAccumulates(t *testing.T) {
	db := newTestDB(t)
	s := newQuizService(t, db)

	if _, err := s.Confirm("u1", domain.QuizConfirmation{
		EnjoyedSongs: []domain.QuizSong{{Artist: "Queen", Title: "Bohemian Rhapsody"}},
	}); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	// A later service sync observes the same song
	song, _ := db.GetCatalogSong("s2")
	if _, err := db.UpsertUserSong("u1", song, store.TasteObservation{Source: "spotify", PlayCount: 6}); err != nil {
		t.Fatalf("UpsertUserSong failed: %v", err)
	}

	songs, _ := db.GetUserSongs("u1")
	if songs[0].PlayCount != 7 {
		t.Errorf("Expected quiz and sync counts to sum (7), got %d", songs[0].PlayCount)
	}
}

func TestQuizConfirmSavesPreferences(t *testing.T) {
	db := newTestDB(t)
	s := newQuizService(t, db)

	if _, err := s.Confirm("u1", domain.QuizConfirmation{
		Genres:  []string{"rock", "grunge"},
		Decades: []int{1990, 1970},
	}); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	raw, err := store.NewSettingsRepo(db).Get(store.SettingUserPrefsPrefix + "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if raw == "" {
		t.Fatal("Expected stored preferences")
	}
}
