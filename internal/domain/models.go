package domain

import (
	"time"
)

// SyncStatus enumerates the lifecycle states of a sync job.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// SyncPhase names the step a sync job is currently performing.
type SyncPhase string

const (
	SyncPhaseFetching   SyncPhase = "fetching"
	SyncPhaseMatching   SyncPhase = "matching"
	SyncPhasePersisting SyncPhase = "persisting"
)

// SyncProgress is the pollable progress sub-record of a sync job.
type SyncProgress struct {
	CurrentService  string    `json:"current_service" db:"current_service"`
	CurrentPhase    SyncPhase `json:"current_phase" db:"current_phase"`
	TotalEvents     int       `json:"total_events" db:"total_events"`
	ProcessedEvents int       `json:"processed_events" db:"processed_events"`
	MatchedEvents   int       `json:"matched_events" db:"matched_events"`
	Percent         float64   `json:"percent" db:"percent"`
}

// SyncJob represents one execution of the ingestion orchestrator for one user.
// Exactly one job per user may be pending or in_progress at a time.
type SyncJob struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"user_id" db:"user_id"`
	Status      SyncStatus   `json:"status" db:"status"`
	Progress    SyncProgress `json:"progress" db:"progress"`
	Results     []SyncResult `json:"results,omitempty" db:"-"`
	Error       *string      `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

// SyncResult is the per-service outcome attached to a sync job. A failure on
// one service never prevents the remaining services from running.
type SyncResult struct {
	ID             int64  `json:"-" db:"id"`
	JobID          string `json:"-" db:"job_id"`
	Service        string `json:"service" db:"service"`
	Position       int    `json:"-" db:"position"`
	TracksFetched  int    `json:"tracks_fetched" db:"tracks_fetched"`
	TracksMatched  int    `json:"tracks_matched" db:"tracks_matched"`
	RecordsCreated int    `json:"records_created" db:"records_created"`
	RecordsUpdated int    `json:"records_updated" db:"records_updated"`
	ArtistsStored  int    `json:"artists_stored" db:"artists_stored"`
	Error          string `json:"error,omitempty" db:"error"`
}

// CatalogSong is a reference record owned by the catalog index. Never mutated
// by this application.
type CatalogSong struct {
	ID          string      `json:"id" db:"id"`
	ArtistID    string      `json:"artist_id" db:"artist_id"`
	Artist      string      `json:"artist" db:"artist"`
	Title       string      `json:"title" db:"title"`
	NormArtist  string      `json:"-" db:"norm_artist"`
	NormTitle   string      `json:"-" db:"norm_title"`
	Decade      int         `json:"decade" db:"decade"`
	Genres      StringSlice `json:"genres" db:"genres"`
	Popularity  int         `json:"popularity" db:"popularity"`
	BrandCount  int         `json:"brand_count" db:"brand_count"`
	Explicit    bool        `json:"explicit" db:"explicit"`
	DurationSec int         `json:"duration_sec" db:"duration_sec"`
}

// CatalogArtist is a reference artist owned by the catalog index. ID is the
// stable cross-service identifier; ExternalID is a secondary identifier used
// for enrichment lookups.
type CatalogArtist struct {
	ID         string      `json:"id" db:"id"`
	ExternalID string      `json:"external_id,omitempty" db:"external_id"`
	Name       string      `json:"name" db:"name"`
	NormName   string      `json:"-" db:"norm_name"`
	Genres     StringSlice `json:"genres" db:"genres"`
	Popularity int         `json:"popularity" db:"popularity"`
	PeakDecade int         `json:"peak_decade" db:"peak_decade"`
	SongCount  int         `json:"song_count" db:"song_count"`
}

// RawListeningEvent is an ephemeral per-page event pulled from an external
// listening service. Discarded after matching, never persisted.
type RawListeningEvent struct {
	Service   string
	Artist    string
	Title     string
	PlayCount int
	PlayedAt  time.Time
	Saved     bool
}

// UserArtist is a resolved taste record tying a user to a catalog artist.
// Unique per (user_id, artist_id); counts merge across sources.
type UserArtist struct {
	ID           int64        `json:"-" db:"id"`
	UserID       string       `json:"user_id" db:"user_id"`
	ArtistID     string       `json:"artist_id" db:"artist_id"`
	Name         string       `json:"name" db:"name"`
	PlayCount    int          `json:"play_count" db:"play_count"`
	LastPlayedAt *time.Time   `json:"last_played_at,omitempty" db:"last_played_at"`
	Saved        bool         `json:"saved" db:"saved"`
	Sources      SourceCounts `json:"sources" db:"sources"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// UserSong is a resolved taste record tying a user to a catalog song.
type UserSong struct {
	ID           int64        `json:"-" db:"id"`
	UserID       string       `json:"user_id" db:"user_id"`
	SongID       string       `json:"song_id" db:"song_id"`
	Title        string       `json:"title" db:"title"`
	Artist       string       `json:"artist" db:"artist"`
	PlayCount    int          `json:"play_count" db:"play_count"`
	LastPlayedAt *time.Time   `json:"last_played_at,omitempty" db:"last_played_at"`
	Saved        bool         `json:"saved" db:"saved"`
	Sources      SourceCounts `json:"sources" db:"sources"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// ReasonKind is the closed set of explanations attached to recommendations
// and artist suggestions.
type ReasonKind string

const (
	ReasonFansAlsoLike  ReasonKind = "fans-also-like"
	ReasonKnownArtist   ReasonKind = "known-artist"
	ReasonSimilarArtist ReasonKind = "similar-artist"
	ReasonGenreMatch    ReasonKind = "genre-match"
	ReasonDecadeMatch   ReasonKind = "decade-match"
	ReasonPopularChoice ReasonKind = "popular-choice"
)

// Priority orders reason kinds; higher wins when several kinds apply.
func (k ReasonKind) Priority() int {
	switch k {
	case ReasonFansAlsoLike:
		return 6
	case ReasonKnownArtist:
		return 5
	case ReasonSimilarArtist:
		return 4
	case ReasonGenreMatch:
		return 3
	case ReasonDecadeMatch:
		return 2
	case ReasonPopularChoice:
		return 1
	default:
		return 0
	}
}

// Reason explains why an item was recommended or suggested. RelatedTo names
// the artist that triggered a similarity match, when applicable.
type Reason struct {
	Kind      ReasonKind `json:"kind"`
	Text      string     `json:"text"`
	RelatedTo string     `json:"related_to,omitempty"`
}

// Recommendation is a scored catalog song with exactly one reason.
// Computed on demand, never persisted.
type Recommendation struct {
	Song   CatalogSong `json:"song"`
	Score  float64     `json:"score"`
	Reason Reason      `json:"reason"`
}

// RecommendationBuckets partitions recommendations into the three named
// categories. A song appears in exactly one bucket.
type RecommendationBuckets struct {
	FromArtistsYouKnow []Recommendation `json:"from_artists_you_know"`
	CreateYourOwn      []Recommendation `json:"create_your_own"`
	CrowdPleasers      []Recommendation `json:"crowd_pleasers"`
}

// RecommendFilters constrains recommendation candidates before scoring.
// Zero values mean "unset".
type RecommendFilters struct {
	Decade          int  `json:"decade,omitempty"`
	MinPopularity   int  `json:"min_popularity,omitempty"`
	MaxPopularity   int  `json:"max_popularity,omitempty"`
	ExcludeExplicit bool `json:"exclude_explicit,omitempty"`
	MinDurationSec  int  `json:"min_duration_sec,omitempty"`
	MaxDurationSec  int  `json:"max_duration_sec,omitempty"`
	ClassicsOnly    bool `json:"classics_only,omitempty"`
}

// TasteProfile bundles a user's resolved taste records and stated
// preferences for scoring.
type TasteProfile struct {
	UserID          string
	Artists         []UserArtist
	Songs           []UserSong
	Genres          []string
	PreferredDecade int
}

// KnownArtistIDs returns the set of catalog artist ids in the profile.
func (p *TasteProfile) KnownArtistIDs() map[string]UserArtist {
	out := make(map[string]UserArtist, len(p.Artists))
	for _, a := range p.Artists {
		out[a.ArtistID] = a
	}
	return out
}

// GenreSet returns the stated and derived genres as a lookup set.
func (p *TasteProfile) GenreSet() map[string]bool {
	out := make(map[string]bool, len(p.Genres))
	for _, g := range p.Genres {
		out[g] = true
	}
	return out
}

// SuggestionContext bundles the onboarding signals that drive artist
// suggestions. Selected artists are excluded from future batches in addition
// to the caller-tracked already-shown set.
type SuggestionContext struct {
	UserID         string   `json:"user_id"`
	Genres         []string `json:"genres,omitempty"`
	Decades        []int    `json:"decades,omitempty"`
	EnteredArtists []string `json:"entered_artists,omitempty"`
	EnjoyedSongs   []string `json:"enjoyed_songs,omitempty"`
	Selected       []string `json:"selected,omitempty"`
}

// SuggestedArtist is a catalog artist with exactly one suggestion reason.
type SuggestedArtist struct {
	Artist CatalogArtist `json:"artist"`
	Score  float64       `json:"score"`
	Reason Reason        `json:"reason"`
}

// SuggestionBatch is one page of suggested artists. HasMore is false once
// the candidate pool is exhausted under the current filters.
type SuggestionBatch struct {
	Artists []SuggestedArtist `json:"artists"`
	HasMore bool              `json:"has_more"`
}

// QuizSong is a free-form song reference collected during onboarding.
type QuizSong struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// QuizConfirmation is the final onboarding payload: the artists the user
// picked, the songs they named and their stated preferences.
type QuizConfirmation struct {
	SelectedArtistIDs []string   `json:"selected_artist_ids"`
	EnteredArtists    []string   `json:"entered_artists,omitempty"`
	EnjoyedSongs      []QuizSong `json:"enjoyed_songs,omitempty"`
	Genres            []string   `json:"genres,omitempty"`
	Decades           []int      `json:"decades,omitempty"`
}

// UserPreferences are the stated genre and decade preferences kept
// alongside the synced taste records.
type UserPreferences struct {
	Genres          []string `json:"genres,omitempty"`
	PreferredDecade int      `json:"preferred_decade,omitempty"`
}
