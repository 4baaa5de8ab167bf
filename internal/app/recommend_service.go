package app

import (
	"encoding/json"
	"fmt"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/recommend"
	"github.com/mvaldes/encore/internal/store"
)

// RecommendService assembles a taste profile from stored records and
// stated preferences, then delegates scoring to the engine.
type RecommendService struct {
	Repo     *store.DB
	Index    catalog.Index
	Engine   *recommend.Engine
	Settings *store.SettingsRepo
	Logger   *logger.Logger
}

func NewRecommendService(repo *store.DB, index catalog.Index, engine *recommend.Engine, settings *store.SettingsRepo, log *logger.Logger) *RecommendService {
	return &RecommendService{
		Repo:     repo,
		Index:    index,
		Engine:   engine,
		Settings: settings,
		Logger:   log,
	}
}

func (s *RecommendService) Recommendations(userID string, filters domain.RecommendFilters) (*domain.RecommendationBuckets, error) {
	profile, err := s.BuildProfile(userID)
	if err != nil {
		return nil, err
	}
	return s.Engine.Recommend(profile, filters)
}

// BuildProfile loads taste records and preferences for one user.
// Unstated preferences are derived from the known artists: their genres,
// and the decade most of them peaked in.
func (s *RecommendService) BuildProfile(userID string) (*domain.TasteProfile, error) {
	artists, err := s.Repo.GetUserArtists(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user artists: %w", err)
	}
	songs, err := s.Repo.GetUserSongs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user songs: %w", err)
	}

	profile := &domain.TasteProfile{
		UserID:  userID,
		Artists: artists,
		Songs:   songs,
	}

	prefs, err := s.loadPreferences(userID)
	if err != nil {
		return nil, err
	}
	profile.Genres = prefs.Genres
	profile.PreferredDecade = prefs.PreferredDecade

	if len(profile.Genres) > 0 && profile.PreferredDecade != 0 {
		return profile, nil
	}

	ids := make([]string, 0, len(artists))
	for _, a := range artists {
		ids = append(ids, a.ArtistID)
	}
	if len(ids) == 0 {
		return profile, nil
	}
	known, err := s.Index.ArtistsByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog artists: %w", err)
	}

	if len(profile.Genres) == 0 {
		profile.Genres = dominantGenres(known)
	}
	if profile.PreferredDecade == 0 {
		profile.PreferredDecade = dominantDecade(known)
	}
	return profile, nil
}

func (s *RecommendService) loadPreferences(userID string) (domain.UserPreferences, error) {
	var prefs domain.UserPreferences
	raw, err := s.Settings.Get(store.SettingUserPrefsPrefix + userID)
	if err != nil {
		return prefs, fmt.Errorf("failed to load preferences: %w", err)
	}
	if raw == "" {
		return prefs, nil
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		s.Logger.Warn("Ignoring malformed stored preferences", "user_id", userID, "error", err)
		return domain.UserPreferences{}, nil
	}
	return prefs, nil
}

// dominantGenres returns the genres shared by at least two known
// artists, or every known genre when the profile is small.
func dominantGenres(artists []domain.CatalogArtist) []string {
	counts := make(map[string]int)
	var order []string
	for _, a := range artists {
		for _, g := range a.Genres {
			if counts[g] == 0 {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	var out []string
	for _, g := range order {
		if counts[g] >= 2 {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		out = order
	}
	return out
}

func dominantDecade(artists []domain.CatalogArtist) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, a := range artists {
		if a.PeakDecade == 0 {
			continue
		}
		counts[a.PeakDecade]++
		if counts[a.PeakDecade] > bestCount ||
			(counts[a.PeakDecade] == bestCount && a.PeakDecade > best) {
			best = a.PeakDecade
			bestCount = counts[a.PeakDecade]
		}
	}
	return best
}
