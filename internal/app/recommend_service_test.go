package app

import (
	"testing"

	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/recommend"
	"github.com/mvaldes/encore/internal/store"
)

func newRecommendService(t *testing.T, db *store.DB) *RecommendService {
	t.Helper()
	engine, err := recommend.NewEngine(db, recommend.DefaultConfig(), logger.Default())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return NewRecommendService(db, db, engine, store.NewSettingsRepo(db), logger.Default())
}

func TestBuildProfileDerivesPreferences(t *testing.T) {
	db := newTestDB(t)
	s := newRecommendService(t, db)

	for _, id := range []string{"ar1", "ar2"} {
		artist, _ := db.GetCatalogArtist(id)
		if _, err := db.UpsertUserArtist("u1", artist, store.TasteObservation{Source: "spotify", PlayCount: 10}); err != nil {
			t.Fatalf("UpsertUserArtist failed: %v", err)
		}
	}

	profile, err := s.BuildProfile("u1")
	if err != nil {
		t.Fatalf("BuildProfile failed: %v", err)
	}
	if len(profile.Artists) != 2 {
		t.Fatalf("Expected 2 artists, got %d", len(profile.Artists))
	}
	// Both known artists share rock
	if len(profile.Genres) != 1 || profile.Genres[0] != "rock" {
		t.Errorf("Expected derived genres [rock], got %v", profile.Genres)
	}
	if profile.PreferredDecade == 0 {
		t.Error("Expected a derived preferred decade")
	}
}

func TestBuildProfileStatedPreferencesWin(t *testing.T) {
	db := newTestDB(t)
	s := newRecommendService(t, db)
	quiz := newQuizService(t, db)

	if _, err := quiz.Confirm("u1", domain.QuizConfirmation{
		SelectedArtistIDs: []string{"ar1"},
		Genres:            []string{"grunge"},
		Decades:           []int{1990},
	}); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	profile, err := s.BuildProfile("u1")
	if err != nil {
		t.Fatalf("BuildProfile failed: %v", err)
	}
	if len(profile.Genres) != 1 || profile.Genres[0] != "grunge" {
		t.Errorf("Expected stated genres to win, got %v", profile.Genres)
	}
	if profile.PreferredDecade != 1990 {
		t.Errorf("Expected stated decade 1990, got %d", profile.PreferredDecade)
	}
}

func TestRecommendationsEndToEnd(t *testing.T) {
	db := newTestDB(t)
	s := newRecommendService(t, db)

	artist, _ := db.GetCatalogArtist("ar1")
	if _, err := db.UpsertUserArtist("u1", artist, store.TasteObservation{Source: "spotify", PlayCount: 20}); err != nil {
		t.Fatalf("UpsertUserArtist failed: %v", err)
	}

	buckets, err := s.Recommendations("u1", domain.RecommendFilters{})
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	if len(buckets.FromArtistsYouKnow) != 1 || buckets.FromArtistsYouKnow[0].Song.ID != "s1" {
		t.Errorf("Expected Hey Jude in known-artist bucket, got %+v", buckets.FromArtistsYouKnow)
	}

	// Cold start still answers
	cold, err := s.Recommendations("nobody", domain.RecommendFilters{})
	if err != nil {
		t.Fatalf("Recommendations failed: %v", err)
	}
	if len(cold.CrowdPleasers) == 0 {
		t.Error("Expected crowd pleasers for unknown user")
	}
}
