package recommend

import (
	"fmt"
	"math"

	"github.com/mvaldes/encore/internal/config"
	"github.com/mvaldes/encore/internal/constants"
)

// Config holds the scoring factor weights. They must sum to 1 so
// scores stay in [0, 1].
type Config struct {
	WeightKnownArtist  float64
	WeightPopularity   float64
	WeightAvailability float64
	WeightGenre        float64
	WeightDecade       float64
}

func DefaultConfig() Config {
	return Config{
		WeightKnownArtist:  constants.DefaultWeightKnownArtist,
		WeightPopularity:   constants.DefaultWeightPopularity,
		WeightAvailability: constants.DefaultWeightAvailability,
		WeightGenre:        constants.DefaultWeightGenre,
		WeightDecade:       constants.DefaultWeightDecade,
	}
}

func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		WeightKnownArtist:  cfg.WeightKnownArtist,
		WeightPopularity:   cfg.WeightPopularity,
		WeightAvailability: cfg.WeightAvailability,
		WeightGenre:        cfg.WeightGenre,
		WeightDecade:       cfg.WeightDecade,
	}
}

func (c Config) Validate() error {
	sum := c.WeightKnownArtist + c.WeightPopularity + c.WeightAvailability + c.WeightGenre + c.WeightDecade
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}
	for _, w := range []float64{c.WeightKnownArtist, c.WeightPopularity, c.WeightAvailability, c.WeightGenre, c.WeightDecade} {
		if w < 0 || w > 1 {
			return fmt.Errorf("scoring weight %.3f out of range [0, 1]", w)
		}
	}
	return nil
}
