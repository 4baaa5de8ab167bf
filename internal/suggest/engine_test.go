package suggest

import (
	"context"
	"testing"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
)

type stubCooccurrences struct {
	results []store.ArtistCooccurrence
}

func (s *stubCooccurrences) GetArtistCooccurrences(userID string, seedArtistIDs []string, minOverlap, limit int) ([]store.ArtistCooccurrence, error) {
	return s.results, nil
}

func testIndex() *catalog.Fixture {
	return catalog.NewFixture(nil, []domain.CatalogArtist{
		{ID: "ar1", Name: "The Beatles", NormName: "the beatles", Genres: domain.StringSlice{"rock"}, Popularity: 95, PeakDecade: 1960},
		{ID: "ar2", Name: "Queen", NormName: "queen", Genres: domain.StringSlice{"rock"}, Popularity: 92, PeakDecade: 1970},
		{ID: "ar3", Name: "Oasis", NormName: "oasis", Genres: domain.StringSlice{"britpop", "rock"}, Popularity: 85, PeakDecade: 1990},
		{ID: "ar4", Name: "Nirvana", NormName: "nirvana", Genres: domain.StringSlice{"grunge"}, Popularity: 88, PeakDecade: 1990},
		{ID: "ar5", Name: "Madonna", NormName: "madonna", Genres: domain.StringSlice{"pop"}, Popularity: 90, PeakDecade: 1980},
		{ID: "ar6", Name: "ABBA", NormName: "abba", Genres: domain.StringSlice{"pop"}, Popularity: 89, PeakDecade: 1970},
	})
}

func newTestEngine(co CooccurrenceStore, initial, more int) *Engine {
	idx := testIndex()
	return NewEngine(idx, co, matcher.New(idx), initial, more, logger.Default())
}

func TestLoadInitialWithSeeds(t *testing.T) {
	co := &stubCooccurrences{results: []store.ArtistCooccurrence{{ArtistID: "ar2", Fans: 3}}}
	e := newTestEngine(co, 4, 2)

	sctx := domain.SuggestionContext{
		UserID:         "u1",
		EnteredArtists: []string{"The Beatles"},
	}
	batch, err := e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial failed: %v", err)
	}
	if len(batch.Artists) != 4 {
		t.Fatalf("Expected 4 suggestions, got %d", len(batch.Artists))
	}

	// The seed itself never comes back
	for _, s := range batch.Artists {
		if s.Artist.ID == "ar1" {
			t.Error("Seed artist must not be suggested")
		}
	}

	// Fans-also-like outranks everything
	first := batch.Artists[0]
	if first.Artist.ID != "ar2" || first.Reason.Kind != domain.ReasonFansAlsoLike {
		t.Errorf("Expected ar2 with fans-also-like first, got %s (%s)", first.Artist.ID, first.Reason.Kind)
	}
	if first.Reason.Text != "Fans of The Beatles also sing Queen" {
		t.Errorf("Unexpected reason text %q", first.Reason.Text)
	}
	if first.Reason.RelatedTo != "The Beatles" {
		t.Errorf("Expected related_to The Beatles, got %q", first.Reason.RelatedTo)
	}

	// Rock artists follow as similar to the seed
	second := batch.Artists[1]
	if second.Artist.ID != "ar3" || second.Reason.Kind != domain.ReasonSimilarArtist {
		t.Errorf("Expected ar3 similar-artist second, got %s (%s)", second.Artist.ID, second.Reason.Kind)
	}
	if second.Reason.RelatedTo != "The Beatles" {
		t.Errorf("Expected related_to The Beatles, got %q", second.Reason.RelatedTo)
	}
}

func TestLoadInitialGenresAndDecades(t *testing.T) {
	e := newTestEngine(&stubCooccurrences{}, 3, 2)

	sctx := domain.SuggestionContext{
		UserID:  "u1",
		Genres:  []string{"pop"},
		Decades: []int{1990},
	}
	batch, err := e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial failed: %v", err)
	}
	if len(batch.Artists) != 3 {
		t.Fatalf("Expected 3 suggestions, got %d", len(batch.Artists))
	}

	// Genre matches outrank decade matches
	if batch.Artists[0].Reason.Kind != domain.ReasonGenreMatch {
		t.Errorf("Expected genre-match first, got %s", batch.Artists[0].Reason.Kind)
	}
	if batch.Artists[0].Artist.ID != "ar5" {
		t.Errorf("Expected Madonna first by popularity, got %s", batch.Artists[0].Artist.ID)
	}
	if batch.Artists[2].Reason.Kind != domain.ReasonDecadeMatch {
		t.Errorf("Expected decade-match third, got %s", batch.Artists[2].Reason.Kind)
	}
	if !batch.HasMore {
		t.Error("Expected more suggestions to be available")
	}
}

func TestLoadInitialEnjoyedSongSeeds(t *testing.T) {
	co := &stubCooccurrences{results: []store.ArtistCooccurrence{{ArtistID: "ar2", Fans: 3}}}
	idx := catalog.NewFixture(
		[]domain.CatalogSong{
			{ID: "s1", ArtistID: "ar1", Artist: "The Beatles", Title: "Hey Jude", NormArtist: "the beatles", NormTitle: "hey jude", Decade: 1960, Genres: domain.StringSlice{"rock"}, Popularity: 97, BrandCount: 9},
		},
		[]domain.CatalogArtist{
			{ID: "ar1", Name: "The Beatles", NormName: "the beatles", Genres: domain.StringSlice{"rock"}, Popularity: 95, PeakDecade: 1960},
			{ID: "ar2", Name: "Queen", NormName: "queen", Genres: domain.StringSlice{"rock"}, Popularity: 92, PeakDecade: 1970},
			{ID: "ar3", Name: "Oasis", NormName: "oasis", Genres: domain.StringSlice{"britpop", "rock"}, Popularity: 85, PeakDecade: 1990},
		})
	e := NewEngine(idx, co, matcher.New(idx), 3, 2, logger.Default())

	sctx := domain.SuggestionContext{
		UserID:       "u1",
		EnjoyedSongs: []string{"The Beatles - Hey Jude"},
	}
	batch, err := e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial failed: %v", err)
	}
	if len(batch.Artists) == 0 {
		t.Fatal("Expected suggestions seeded by the enjoyed song")
	}

	// The matched song's artist acts as a seed and never comes back
	for _, s := range batch.Artists {
		if s.Artist.ID == "ar1" {
			t.Error("Enjoyed-song artist must not be suggested")
		}
	}

	first := batch.Artists[0]
	if first.Artist.ID != "ar2" || first.Reason.Kind != domain.ReasonFansAlsoLike {
		t.Errorf("Expected ar2 fans-also-like first, got %s (%s)", first.Artist.ID, first.Reason.Kind)
	}
	if first.Reason.RelatedTo != "The Beatles" {
		t.Errorf("Expected related_to The Beatles, got %q", first.Reason.RelatedTo)
	}

	// Unparseable or unmatched entries are skipped, not fatal
	sctx = domain.SuggestionContext{
		UserID:       "u1",
		EnjoyedSongs: []string{"justastring", "Nonexistent - Nope"},
	}
	batch, err = e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial with bad entries failed: %v", err)
	}
	for _, s := range batch.Artists {
		if s.Reason.Kind != domain.ReasonPopularChoice {
			t.Errorf("Expected only popular-choice without resolvable seeds, got %s", s.Reason.Kind)
		}
	}
}

func TestLoadMoreExcludes(t *testing.T) {
	e := newTestEngine(&stubCooccurrences{}, 3, 3)

	sctx := domain.SuggestionContext{
		UserID:   "u1",
		Genres:   []string{"rock"},
		Selected: []string{"ar2"},
	}
	shown := []string{"ar1", "ar3"}

	batch, err := e.LoadMore(context.Background(), sctx, shown)
	if err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}

	banned := map[string]bool{"ar1": true, "ar2": true, "ar3": true}
	for _, s := range batch.Artists {
		if banned[s.Artist.ID] {
			t.Errorf("Artist %s must not reappear", s.Artist.ID)
		}
	}
	if len(batch.Artists) != 3 {
		t.Fatalf("Expected 3 suggestions, got %d", len(batch.Artists))
	}
}

func TestLoadMoreExhaustsPool(t *testing.T) {
	e := newTestEngine(&stubCooccurrences{}, 4, 4)

	sctx := domain.SuggestionContext{UserID: "u1"}
	shown := []string{"ar1", "ar2", "ar4", "ar5"}

	batch, err := e.LoadMore(context.Background(), sctx, shown)
	if err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	// Only ar3 and ar6 remain out of six
	if len(batch.Artists) != 2 {
		t.Fatalf("Expected 2 remaining artists, got %d", len(batch.Artists))
	}
	if batch.HasMore {
		t.Error("Expected HasMore false on exhausted pool")
	}

	// Nothing left at all
	batch, err = e.LoadMore(context.Background(), sctx, []string{"ar1", "ar2", "ar3", "ar4", "ar5", "ar6"})
	if err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	if len(batch.Artists) != 0 || batch.HasMore {
		t.Errorf("Expected empty terminal batch, got %d artists, has_more=%v", len(batch.Artists), batch.HasMore)
	}
}

func TestLoadInitialDeterministic(t *testing.T) {
	co := &stubCooccurrences{results: []store.ArtistCooccurrence{{ArtistID: "ar2", Fans: 3}}}
	e := newTestEngine(co, 5, 2)

	sctx := domain.SuggestionContext{
		UserID:         "u1",
		Genres:         []string{"pop"},
		EnteredArtists: []string{"The Beatles"},
	}

	first, err := e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial failed: %v", err)
	}
	second, err := e.LoadInitial(context.Background(), sctx)
	if err != nil {
		t.Fatalf("LoadInitial failed: %v", err)
	}

	if len(first.Artists) != len(second.Artists) {
		t.Fatalf("Batch sizes differ: %d vs %d", len(first.Artists), len(second.Artists))
	}
	for i := range first.Artists {
		if first.Artists[i].Artist.ID != second.Artists[i].Artist.ID {
			t.Errorf("Position %d differs: %s vs %s", i, first.Artists[i].Artist.ID, second.Artists[i].Artist.ID)
		}
		if first.Artists[i].Reason != second.Artists[i].Reason {
			t.Errorf("Reason at %d differs", i)
		}
	}
}
