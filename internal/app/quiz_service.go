package app

import (
	"encoding/json"
	"fmt"

	"github.com/mvaldes/encore/internal/catalog"
	"github.com/mvaldes/encore/internal/constants"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/store"
)

// QuizResult summarizes what a quiz confirmation stored.
type QuizResult struct {
	ArtistsStored int `json:"artists_stored"`
	SongsStored   int `json:"songs_stored"`
	SongsSkipped  int `json:"songs_skipped"`
}

// QuizService folds onboarding-quiz answers into taste records. Quiz
// records carry the quiz source, so a later service sync adds to them
// instead of replacing them.
type QuizService struct {
	Repo     *store.DB
	Index    catalog.Index
	Matcher  *matcher.Matcher
	Settings *store.SettingsRepo
	Logger   *logger.Logger
}

func NewQuizService(repo *store.DB, index catalog.Index, m *matcher.Matcher, settings *store.SettingsRepo, log *logger.Logger) *QuizService {
	return &QuizService{
		Repo:     repo,
		Index:    index,
		Matcher:  m,
		Settings: settings,
		Logger:   log.WithComponent("quiz"),
	}
}

// Confirm stores the user's selections. Unresolvable song references
// are counted and skipped, never fatal.
func (s *QuizService) Confirm(userID string, conf domain.QuizConfirmation) (*QuizResult, error) {
	result := &QuizResult{}
	obs := store.TasteObservation{Source: constants.SourceQuiz, PlayCount: 1, Saved: true}

	if len(conf.SelectedArtistIDs) > 0 {
		artists, err := s.Index.ArtistsByIDs(conf.SelectedArtistIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve selected artists: %w", err)
		}
		for i := range artists {
			if _, err := s.Repo.UpsertUserArtist(userID, &artists[i], obs); err != nil {
				return nil, fmt.Errorf("failed to store artist: %w", err)
			}
			result.ArtistsStored++
		}
	}

	for _, name := range conf.EnteredArtists {
		match, ok := s.Matcher.MatchArtist(name)
		if !ok {
			continue
		}
		if _, err := s.Repo.UpsertUserArtist(userID, &match.Artist, obs); err != nil {
			return nil, fmt.Errorf("failed to store artist: %w", err)
		}
		result.ArtistsStored++
	}

	for _, song := range conf.EnjoyedSongs {
		match, ok := s.Matcher.MatchSong(song.Artist, song.Title)
		if !ok {
			result.SongsSkipped++
			continue
		}
		if _, err := s.Repo.UpsertUserSong(userID, &match.Song, obs); err != nil {
			return nil, fmt.Errorf("failed to store song: %w", err)
		}
		result.SongsStored++

		artist, err := s.Index.GetCatalogArtist(match.Song.ArtistID)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog artist: %w", err)
		}
		if artist != nil {
			if _, err := s.Repo.UpsertUserArtist(userID, artist, obs); err != nil {
				return nil, fmt.Errorf("failed to store artist: %w", err)
			}
		}
	}

	if err := s.savePreferences(userID, conf); err != nil {
		return nil, err
	}

	s.Logger.Info("Quiz confirmed",
		"user_id", userID,
		"artists_stored", result.ArtistsStored,
		"songs_stored", result.SongsStored,
		"songs_skipped", result.SongsSkipped)
	return result, nil
}

func (s *QuizService) savePreferences(userID string, conf domain.QuizConfirmation) error {
	prefs := domain.UserPreferences{Genres: conf.Genres}
	if len(conf.Decades) > 0 {
		prefs.PreferredDecade = conf.Decades[0]
	}
	if len(prefs.Genres) == 0 && prefs.PreferredDecade == 0 {
		return nil
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.Settings.Set(store.SettingUserPrefsPrefix+userID, string(data)); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
