package recommend

import (
	"fmt"
	"sort"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
)

// Engine scores catalog songs against a taste profile and sorts them
// into the three recommendation buckets. Stateless; all inputs arrive
// per call.
type Engine struct {
	index      catalog.Index
	cfg        Config
	log        *logger.Logger
	bucketSize int
}

func NewEngine(index catalog.Index, cfg Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		index:      index,
		cfg:        cfg,
		log:        log.WithComponent("recommend"),
		bucketSize: constants.DefaultBucketSize,
	}, nil
}

// Recommend builds the categorized buckets for one profile. A song
// appears in at most one bucket, chosen by its reason.
func (e *Engine) Recommend(profile *domain.TasteProfile, filters domain.RecommendFilters) (*domain.RecommendationBuckets, error) {
	candidates, err := e.gatherCandidates(profile, filters)
	if err != nil {
		return nil, err
	}

	known := profile.KnownArtistIDs()
	genres := profile.GenreSet()

	buckets := &domain.RecommendationBuckets{}
	for _, song := range candidates {
		if !passesFilters(song, filters) {
			continue
		}

		score := e.score(song, known, genres, profile.PreferredDecade)
		reason := e.reason(song, known, genres, profile.PreferredDecade)
		rec := domain.Recommendation{Song: song, Score: score, Reason: reason}

		switch reason.Kind {
		case domain.ReasonKnownArtist:
			buckets.FromArtistsYouKnow = append(buckets.FromArtistsYouKnow, rec)
		case domain.ReasonGenreMatch, domain.ReasonDecadeMatch:
			buckets.CreateYourOwn = append(buckets.CreateYourOwn, rec)
		default:
			buckets.CrowdPleasers = append(buckets.CrowdPleasers, rec)
		}
	}

	buckets.FromArtistsYouKnow = capBucket(buckets.FromArtistsYouKnow, e.bucketSize)
	buckets.CreateYourOwn = capBucket(buckets.CreateYourOwn, e.bucketSize)
	buckets.CrowdPleasers = capBucket(buckets.CrowdPleasers, e.bucketSize)

	e.log.Debug("Built recommendations",
		"user_id", profile.UserID,
		"from_artists_you_know", len(buckets.FromArtistsYouKnow),
		"create_your_own", len(buckets.CreateYourOwn),
		"crowd_pleasers", len(buckets.CrowdPleasers))
	return buckets, nil
}

// gatherCandidates unions known-artist songs, preference matches and
// the popularity floor, deduplicated by song id.
func (e *Engine) gatherCandidates(profile *domain.TasteProfile, filters domain.RecommendFilters) ([]domain.CatalogSong, error) {
	seen := make(map[string]bool)
	var out []domain.CatalogSong
	add := func(songs []domain.CatalogSong) {
		for _, s := range songs {
			if !seen[s.ID] {
				seen[s.ID] = true
				out = append(out, s)
			}
		}
	}

	if ids := artistIDs(profile); len(ids) > 0 {
		songs, err := e.index.SongsByArtistIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load known-artist songs: %w", err)
		}
		add(songs)
	}

	if len(profile.Genres) > 0 || profile.PreferredDecade != 0 {
		songs, err := e.index.SongsByPreferences(profile.Genres, profile.PreferredDecade, constants.CrowdPleaserCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to load preference matches: %w", err)
		}
		add(songs)
	}

	// A decade preference narrows the popular floor to that decade;
	// if too few qualify, fall back to cross-decade populars.
	decade := profile.PreferredDecade
	if filters.Decade != 0 {
		decade = filters.Decade
	}
	if decade != 0 {
		songs, err := e.index.TopSongsByDecade(decade, constants.CrowdPleaserMinBrands, constants.CrowdPleaserCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to load popular songs: %w", err)
		}
		add(songs)
		if len(songs) >= e.bucketSize {
			return out, nil
		}
	}

	songs, err := e.index.TopSongs(constants.CrowdPleaserMinBrands, constants.CrowdPleaserCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular songs: %w", err)
	}
	add(songs)
	return out, nil
}

func (e *Engine) score(song domain.CatalogSong, known map[string]domain.UserArtist, genres map[string]bool, preferredDecade int) float64 {
	var score float64

	if _, ok := known[song.ArtistID]; ok {
		score += e.cfg.WeightKnownArtist
	}

	score += e.cfg.WeightPopularity * float64(song.Popularity) / 100.0

	availability := float64(song.BrandCount) / float64(constants.BrandCountCeiling)
	if availability > 1 {
		availability = 1
	}
	score += e.cfg.WeightAvailability * availability

	if len(song.Genres) > 0 && len(genres) > 0 {
		overlap := 0
		for _, g := range song.Genres {
			if genres[g] {
				overlap++
			}
		}
		score += e.cfg.WeightGenre * float64(overlap) / float64(len(song.Genres))
	}

	if preferredDecade != 0 && song.Decade == preferredDecade {
		score += e.cfg.WeightDecade
	}

	return score
}

// reason picks the single highest-priority explanation that applies.
func (e *Engine) reason(song domain.CatalogSong, known map[string]domain.UserArtist, genres map[string]bool, preferredDecade int) domain.Reason {
	if ua, ok := known[song.ArtistID]; ok {
		return domain.Reason{
			Kind:      domain.ReasonKnownArtist,
			Text:      fmt.Sprintf("You listen to %s", ua.Name),
			RelatedTo: ua.Name,
		}
	}

	for _, g := range song.Genres {
		if genres[g] {
			return domain.Reason{
				Kind: domain.ReasonGenreMatch,
				Text: fmt.Sprintf("Matches your taste for %s", g),
			}
		}
	}

	// A decade preference only personalizes a profile that carries some
	// other signal; for a user whose sole input is a decade, the
	// narrowed populars stay with the crowd.
	if preferredDecade != 0 && song.Decade == preferredDecade && (len(known) > 0 || len(genres) > 0) {
		return domain.Reason{
			Kind: domain.ReasonDecadeMatch,
			Text: fmt.Sprintf("Straight from the %ds", preferredDecade),
		}
	}

	return domain.Reason{
		Kind: domain.ReasonPopularChoice,
		Text: fmt.Sprintf("%s is a crowd favorite", song.Title),
	}
}

func passesFilters(song domain.CatalogSong, f domain.RecommendFilters) bool {
	if f.Decade != 0 && song.Decade != f.Decade {
		return false
	}
	if f.MinPopularity != 0 && song.Popularity < f.MinPopularity {
		return false
	}
	if f.MaxPopularity != 0 && song.Popularity > f.MaxPopularity {
		return false
	}
	if f.ExcludeExplicit && song.Explicit {
		return false
	}
	if f.MinDurationSec != 0 && song.DurationSec < f.MinDurationSec {
		return false
	}
	if f.MaxDurationSec != 0 && song.DurationSec > f.MaxDurationSec {
		return false
	}
	if f.ClassicsOnly {
		if song.Popularity < constants.ClassicsMinPopularity || song.Decade > constants.ClassicsMaxDecade {
			return false
		}
	}
	return true
}

func capBucket(recs []domain.Recommendation, size int) []domain.Recommendation {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if recs[i].Song.Popularity != recs[j].Song.Popularity {
			return recs[i].Song.Popularity > recs[j].Song.Popularity
		}
		return recs[i].Song.ID < recs[j].Song.ID
	})
	if len(recs) > size {
		recs = recs[:size]
	}
	return recs
}

func artistIDs(profile *domain.TasteProfile) []string {
	ids := make([]string, 0, len(profile.Artists))
	for _, a := range profile.Artists {
		ids = append(ids, a.ArtistID)
	}
	return ids
}
