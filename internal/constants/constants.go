// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort         = "8080"
	DefaultDBPath       = "encore.db"
	DefaultPollInterval = 2 * time.Second
	DefaultConcurrency  = 2
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRetryCount   = 3
	DefaultRetryBase    = 1 * time.Second
	DefaultCacheTTL     = 12 * time.Hour
)

// Sync orchestration
const (
	DefaultSyncPageSize   = 50
	DefaultServiceBudget  = 2 * time.Minute
	DefaultMaxSyncPages   = 40
	FinishedJobsPageLimit = 20
)

// Matching thresholds
const (
	FuzzyMatchThreshold  = 0.85
	FuzzyAmbiguityMargin = 0.03
	MaxFuzzyCandidates   = 25
)

// Scoring weights. Defaults only; config may override per deployment.
const (
	DefaultWeightKnownArtist  = 0.35
	DefaultWeightPopularity   = 0.25
	DefaultWeightAvailability = 0.20
	DefaultWeightGenre        = 0.12
	DefaultWeightDecade       = 0.08
)

// Recommendation shaping
const (
	BrandCountCeiling      = 12
	DefaultBucketSize      = 25
	ClassicsMinPopularity  = 60
	ClassicsMaxDecade      = 2000
	CrowdPleaserMinBrands  = 3
	CrowdPleaserCandidates = 200
)

// Artist suggestions
const (
	DefaultInitialBatchSize = 12
	DefaultMoreBatchSize    = 8
	SuggestionPoolLimit     = 300
	FansAlsoLikeMinOverlap  = 2
)

// Taste record sources
const (
	SourceQuiz    = "quiz"
	SourceSpotify = "spotify"
	SourceLastFM  = "lastfm"
)

// Last.fm API
const (
	LastFMBaseURL         = "https://ws.audioscrobbler.com/2.0/"
	LastFMMinRequestDelay = 250 * time.Millisecond
)
