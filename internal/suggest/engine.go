package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
)

// CooccurrenceStore exposes the shared-fans query backing the
// fans-also-like reason.
type CooccurrenceStore interface {
	GetArtistCooccurrences(userID string, seedArtistIDs []string, minOverlap, limit int) ([]store.ArtistCooccurrence, error)
}

// Engine produces onboarding artist suggestions. It keeps no state
// between calls: the caller carries the already-shown set, the context
// carries everything else, and output is deterministic for a given
// (context, exclusion) pair.
type Engine struct {
	index   catalog.Index
	co      CooccurrenceStore
	matcher *matcher.Matcher
	log     *logger.Logger

	initialBatch int
	moreBatch    int
}

func NewEngine(index catalog.Index, co CooccurrenceStore, m *matcher.Matcher, initialBatch, moreBatch int, log *logger.Logger) *Engine {
	if initialBatch <= 0 {
		initialBatch = constants.DefaultInitialBatchSize
	}
	if moreBatch <= 0 {
		moreBatch = constants.DefaultMoreBatchSize
	}
	return &Engine{
		index:        index,
		co:           co,
		matcher:      m,
		log:          log.WithComponent("suggest"),
		initialBatch: initialBatch,
		moreBatch:    moreBatch,
	}
}

// LoadInitial returns the first batch for a fresh onboarding flow.
func (e *Engine) LoadInitial(ctx context.Context, sctx domain.SuggestionContext) (*domain.SuggestionBatch, error) {
	return e.load(ctx, sctx, nil, e.initialBatch)
}

// LoadMore returns a follow-up batch. alreadyShown lists every artist id
// emitted so far; none of them, and none of the selected ids, reappear.
func (e *Engine) LoadMore(ctx context.Context, sctx domain.SuggestionContext, alreadyShown []string) (*domain.SuggestionBatch, error) {
	return e.load(ctx, sctx, alreadyShown, e.moreBatch)
}

func (e *Engine) load(ctx context.Context, sctx domain.SuggestionContext, alreadyShown []string, batchSize int) (*domain.SuggestionBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(alreadyShown)+len(sctx.Selected))
	for _, id := range alreadyShown {
		excluded[id] = true
	}
	for _, id := range sctx.Selected {
		excluded[id] = true
	}

	seeds := e.resolveSeeds(sctx)
	// Seeds are artists the user already knows; suggesting them back
	// is useless.
	for _, s := range seeds {
		excluded[s.ID] = true
	}

	pool, err := e.gather(sctx, seeds, excluded)
	if err != nil {
		return nil, err
	}

	sort.Slice(pool, func(i, j int) bool {
		pi, pj := pool[i].Reason.Kind.Priority(), pool[j].Reason.Kind.Priority()
		if pi != pj {
			return pi > pj
		}
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		if pool[i].Artist.Popularity != pool[j].Artist.Popularity {
			return pool[i].Artist.Popularity > pool[j].Artist.Popularity
		}
		return pool[i].Artist.ID < pool[j].Artist.ID
	})

	batch := pool
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	e.log.Debug("Built suggestion batch",
		"user_id", sctx.UserID,
		"pool", len(pool),
		"batch", len(batch))

	return &domain.SuggestionBatch{
		Artists: batch,
		HasMore: len(batch) == batchSize && len(pool) > batchSize,
	}, nil
}

// resolveSeeds matches entered artist names, enjoyed songs and selected
// ids against the catalog. Enjoyed songs are "Artist - Title" entries
// and seed the artist of the matched song. Unresolvable entries are
// skipped.
func (e *Engine) resolveSeeds(sctx domain.SuggestionContext) []domain.CatalogArtist {
	var seeds []domain.CatalogArtist
	seen := make(map[string]bool)

	for _, name := range sctx.EnteredArtists {
		match, ok := e.matcher.MatchArtist(name)
		if !ok || seen[match.Artist.ID] {
			continue
		}
		seen[match.Artist.ID] = true
		seeds = append(seeds, match.Artist)
	}

	for _, entry := range sctx.EnjoyedSongs {
		artistPart, titlePart, found := strings.Cut(entry, " - ")
		if !found {
			continue
		}
		match, ok := e.matcher.MatchSong(artistPart, titlePart)
		if !ok || seen[match.Song.ArtistID] {
			continue
		}
		artist, err := e.index.GetCatalogArtist(match.Song.ArtistID)
		if err != nil || artist == nil {
			continue
		}
		seen[artist.ID] = true
		seeds = append(seeds, *artist)
	}

	if len(sctx.Selected) > 0 {
		selected, err := e.index.ArtistsByIDs(sctx.Selected)
		if err == nil {
			for _, a := range selected {
				if !seen[a.ID] {
					seen[a.ID] = true
					seeds = append(seeds, a)
				}
			}
		}
	}
	return seeds
}

func (e *Engine) gather(sctx domain.SuggestionContext, seeds []domain.CatalogArtist, excluded map[string]bool) ([]domain.SuggestedArtist, error) {
	var pool []domain.SuggestedArtist
	pooled := make(map[string]bool)
	add := func(artists []domain.CatalogArtist, reason func(domain.CatalogArtist) domain.Reason) {
		for _, a := range artists {
			if excluded[a.ID] || pooled[a.ID] {
				continue
			}
			pooled[a.ID] = true
			pool = append(pool, domain.SuggestedArtist{
				Artist: a,
				Score:  float64(a.Popularity) / 100.0,
				Reason: reason(a),
			})
		}
	}

	if len(seeds) > 0 && e.co != nil {
		seedIDs := make([]string, len(seeds))
		for i, s := range seeds {
			seedIDs[i] = s.ID
		}
		cooc, err := e.co.GetArtistCooccurrences(sctx.UserID, seedIDs, constants.FansAlsoLikeMinOverlap, constants.SuggestionPoolLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load co-occurrences: %w", err)
		}
		if len(cooc) > 0 {
			ids := make([]string, len(cooc))
			for i, c := range cooc {
				ids[i] = c.ArtistID
			}
			artists, err := e.index.ArtistsByIDs(ids)
			if err != nil {
				return nil, fmt.Errorf("failed to load co-occurring artists: %w", err)
			}
			anchor := seeds[0].Name
			add(artists, func(a domain.CatalogArtist) domain.Reason {
				return domain.Reason{
					Kind:      domain.ReasonFansAlsoLike,
					Text:      fmt.Sprintf("Fans of %s also sing %s", anchor, a.Name),
					RelatedTo: anchor,
				}
			})
		}
	}

	// Artists in the same genres as the seeds
	if len(seeds) > 0 {
		seedGenres := collectGenres(seeds)
		if len(seedGenres) > 0 {
			artists, err := e.index.ArtistsByPreferences(seedGenres, nil, constants.SuggestionPoolLimit)
			if err != nil {
				return nil, fmt.Errorf("failed to load similar artists: %w", err)
			}
			anchors := genreAnchors(seeds)
			fallback := seeds[0].Name
			add(artists, func(a domain.CatalogArtist) domain.Reason {
				anchor := anchorFor(a, anchors, fallback)
				return domain.Reason{
					Kind:      domain.ReasonSimilarArtist,
					Text:      fmt.Sprintf("Similar to %s", anchor),
					RelatedTo: anchor,
				}
			})
		}
	}

	if len(sctx.Genres) > 0 {
		artists, err := e.index.ArtistsByPreferences(sctx.Genres, nil, constants.SuggestionPoolLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load genre matches: %w", err)
		}
		genreSet := make(map[string]bool, len(sctx.Genres))
		for _, g := range sctx.Genres {
			genreSet[g] = true
		}
		add(artists, func(a domain.CatalogArtist) domain.Reason {
			genre := sctx.Genres[0]
			for _, g := range a.Genres {
				if genreSet[g] {
					genre = g
					break
				}
			}
			return domain.Reason{
				Kind: domain.ReasonGenreMatch,
				Text: fmt.Sprintf("Because you like %s", genre),
			}
		})
	}

	if len(sctx.Decades) > 0 {
		artists, err := e.index.ArtistsByPreferences(nil, sctx.Decades, constants.SuggestionPoolLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load decade matches: %w", err)
		}
		add(artists, func(a domain.CatalogArtist) domain.Reason {
			return domain.Reason{
				Kind: domain.ReasonDecadeMatch,
				Text: fmt.Sprintf("Big in the %ds", a.PeakDecade),
			}
		})
	}

	artists, err := e.index.TopArtists(constants.SuggestionPoolLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular artists: %w", err)
	}
	add(artists, func(a domain.CatalogArtist) domain.Reason {
		return domain.Reason{
			Kind: domain.ReasonPopularChoice,
			Text: fmt.Sprintf("%s is always a safe pick", a.Name),
		}
	})

	return pool, nil
}

func collectGenres(seeds []domain.CatalogArtist) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range seeds {
		for _, g := range s.Genres {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// genreAnchors maps each seed genre to the first seed carrying it, so
// similar-artist reasons can name a concrete artist.
func genreAnchors(seeds []domain.CatalogArtist) map[string]string {
	out := make(map[string]string)
	for _, s := range seeds {
		for _, g := range s.Genres {
			if _, ok := out[g]; !ok {
				out[g] = s.Name
			}
		}
	}
	return out
}

func anchorFor(a domain.CatalogArtist, anchors map[string]string, fallback string) string {
	for _, g := range a.Genres {
		if name, ok := anchors[g]; ok {
			return name
		}
	}
	return fallback
}
