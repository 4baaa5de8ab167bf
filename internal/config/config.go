package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mvaldes/encore/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Sync orchestration
	SyncPageSize      int
	SyncServiceBudget time.Duration
	SyncConcurrency   int

	// External listening services. A service with no credentials is
	// considered disconnected and skipped by the orchestrator.
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRefreshToken string
	LastFMAPIKey        string
	LastFMUser          string

	// Scoring weights
	WeightKnownArtist  float64
	WeightPopularity   float64
	WeightAvailability float64
	WeightGenre        float64
	WeightDecade       float64

	// Suggestion batches
	InitialBatchSize int
	MoreBatchSize    int
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", constants.DefaultPort),
		DBPath:    getEnv("DB_PATH", constants.DefaultDBPath),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SyncPageSize:      getEnvInt("SYNC_PAGE_SIZE", constants.DefaultSyncPageSize),
		SyncServiceBudget: getEnvDuration("SYNC_SERVICE_BUDGET", constants.DefaultServiceBudget),
		SyncConcurrency:   getEnvInt("SYNC_CONCURRENCY", constants.DefaultConcurrency),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRefreshToken: getEnv("SPOTIFY_REFRESH_TOKEN", ""),
		LastFMAPIKey:        getEnv("LASTFM_API_KEY", ""),
		LastFMUser:          getEnv("LASTFM_USER", ""),

		WeightKnownArtist:  getEnvFloat("WEIGHT_KNOWN_ARTIST", constants.DefaultWeightKnownArtist),
		WeightPopularity:   getEnvFloat("WEIGHT_POPULARITY", constants.DefaultWeightPopularity),
		WeightAvailability: getEnvFloat("WEIGHT_AVAILABILITY", constants.DefaultWeightAvailability),
		WeightGenre:        getEnvFloat("WEIGHT_GENRE", constants.DefaultWeightGenre),
		WeightDecade:       getEnvFloat("WEIGHT_DECADE", constants.DefaultWeightDecade),

		InitialBatchSize: getEnvInt("SUGGEST_INITIAL_BATCH", constants.DefaultInitialBatchSize),
		MoreBatchSize:    getEnvInt("SUGGEST_MORE_BATCH", constants.DefaultMoreBatchSize),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	// Validate Port
	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	// Validate DBPath
	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	// Validate LogLevel
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	// Validate LogFormat
	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	// Validate sync settings
	if c.SyncPageSize < 1 || c.SyncPageSize > 200 {
		errors = append(errors, fmt.Sprintf("SYNC_PAGE_SIZE must be between 1 and 200, got: %d", c.SyncPageSize))
	}
	if c.SyncServiceBudget < time.Second {
		errors = append(errors, fmt.Sprintf("SYNC_SERVICE_BUDGET must be at least 1s, got: %s", c.SyncServiceBudget))
	}
	if c.SyncConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("SYNC_CONCURRENCY must be at least 1, got: %d", c.SyncConcurrency))
	}

	// Validate scoring weights
	weights := map[string]float64{
		"WEIGHT_KNOWN_ARTIST": c.WeightKnownArtist,
		"WEIGHT_POPULARITY":   c.WeightPopularity,
		"WEIGHT_AVAILABILITY": c.WeightAvailability,
		"WEIGHT_GENRE":        c.WeightGenre,
		"WEIGHT_DECADE":       c.WeightDecade,
	}
	sum := 0.0
	for name, w := range weights {
		if w < 0 || w > 1 {
			errors = append(errors, fmt.Sprintf("%s must be between 0 and 1, got: %f", name, w))
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		errors = append(errors, fmt.Sprintf("scoring weights must sum to 1.0, got: %f", sum))
	}

	// Validate suggestion batch sizes
	if c.InitialBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("SUGGEST_INITIAL_BATCH must be at least 1, got: %d", c.InitialBatchSize))
	}
	if c.MoreBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("SUGGEST_MORE_BATCH must be at least 1, got: %d", c.MoreBatchSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
