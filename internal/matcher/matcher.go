package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
)

// Candidate lookups for fuzzy matching are restricted to entries whose
// normalized artist shares this prefix with the query.
const fuzzyPrefixLen = 3

type SongMatch struct {
	Song  domain.CatalogSong
	Score float64
	Exact bool
}

type ArtistMatch struct {
	Artist domain.CatalogArtist
	Score  float64
	Exact  bool
}

// Matcher resolves free-form artist/title strings against the catalog.
// Exact normalized lookup first, Jaro-Winkler fuzzy fallback second.
// Safe for concurrent use.
type Matcher struct {
	index  catalog.Index
	metric *metrics.JaroWinkler
}

func New(index catalog.Index) *Matcher {
	return &Matcher{
		index:  index,
		metric: metrics.NewJaroWinkler(),
	}
}

// MatchSong resolves an (artist, title) pair to a catalog song. Returns
// false for unresolvable or ambiguous input, never an error.
func (m *Matcher) MatchSong(artist, title string) (*SongMatch, bool) {
	normArtist := Normalize(artist)
	normTitle := Normalize(title)
	if normArtist == "" || normTitle == "" {
		return nil, false
	}

	exact, err := m.index.SongsByNormalizedPair(normArtist, normTitle)
	if err == nil && len(exact) > 0 {
		best := pickSong(exact)
		return &SongMatch{Song: best, Score: 1.0, Exact: true}, true
	}

	candidates, err := m.index.SongsByNormalizedArtistPrefix(prefixOf(normArtist), constants.MaxFuzzyCandidates)
	if err != nil || len(candidates) == 0 {
		return nil, false
	}

	query := normArtist + " " + normTitle
	type scored struct {
		song  domain.CatalogSong
		score float64
	}
	var ranked []scored
	for _, cand := range candidates {
		score := strutil.Similarity(query, cand.NormArtist+" "+cand.NormTitle, m.metric)
		if score >= constants.FuzzyMatchThreshold {
			ranked = append(ranked, scored{song: cand, score: score})
		}
	}
	if len(ranked) == 0 {
		return nil, false
	}

	best := ranked[0]
	for _, s := range ranked[1:] {
		if s.score > best.score ||
			(s.score == best.score && songOutranks(s.song, best.song)) {
			best = s
		}
	}

	// Two close candidates from different artists means we cannot tell
	// which one the user meant.
	for _, s := range ranked {
		if s.song.ArtistID != best.song.ArtistID &&
			best.score-s.score < constants.FuzzyAmbiguityMargin {
			return nil, false
		}
	}

	return &SongMatch{Song: best.song, Score: best.score}, true
}

// MatchArtist resolves a free-form artist name to a catalog artist.
func (m *Matcher) MatchArtist(name string) (*ArtistMatch, bool) {
	normName := Normalize(name)
	if normName == "" {
		return nil, false
	}

	exact, err := m.index.ArtistsByNormalizedName(normName)
	if err == nil && len(exact) > 0 {
		best := pickArtist(exact)
		return &ArtistMatch{Artist: best, Score: 1.0, Exact: true}, true
	}

	candidates, err := m.index.ArtistsByNormalizedPrefix(prefixOf(normName), constants.MaxFuzzyCandidates)
	if err != nil || len(candidates) == 0 {
		return nil, false
	}

	type scored struct {
		artist domain.CatalogArtist
		score  float64
	}
	var ranked []scored
	for _, cand := range candidates {
		score := strutil.Similarity(normName, cand.NormName, m.metric)
		if score >= constants.FuzzyMatchThreshold {
			ranked = append(ranked, scored{artist: cand, score: score})
		}
	}
	if len(ranked) == 0 {
		return nil, false
	}

	best := ranked[0]
	for _, s := range ranked[1:] {
		if s.score > best.score ||
			(s.score == best.score && artistOutranks(s.artist, best.artist)) {
			best = s
		}
	}

	for _, s := range ranked {
		if s.artist.ID != best.artist.ID &&
			best.score-s.score < constants.FuzzyAmbiguityMargin {
			return nil, false
		}
	}

	return &ArtistMatch{Artist: best.artist, Score: best.score}, true
}

func prefixOf(s string) string {
	runes := []rune(s)
	if len(runes) <= fuzzyPrefixLen {
		return s
	}
	return string(runes[:fuzzyPrefixLen])
}

func pickSong(songs []domain.CatalogSong) domain.CatalogSong {
	best := songs[0]
	for _, s := range songs[1:] {
		if songOutranks(s, best) {
			best = s
		}
	}
	return best
}

func pickArtist(artists []domain.CatalogArtist) domain.CatalogArtist {
	best := artists[0]
	for _, a := range artists[1:] {
		if artistOutranks(a, best) {
			best = a
		}
	}
	return best
}

func songOutranks(a, b domain.CatalogSong) bool {
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	if a.BrandCount != b.BrandCount {
		return a.BrandCount > b.BrandCount
	}
	return strings.Compare(a.ID, b.ID) < 0
}

func artistOutranks(a, b domain.CatalogArtist) bool {
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	if a.SongCount != b.SongCount {
		return a.SongCount > b.SongCount
	}
	return strings.Compare(a.ID, b.ID) < 0
}
