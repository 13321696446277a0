package portfolio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTieredConfig is wrapped by TieredConfig.Validate
var ErrInvalidTieredConfig = errors.New("invalid tiered weighting config")

// TieredConfig concentrates TopWeight of the notional in the first TopCount names
type TieredConfig struct {
	TopCount  int     `json:"top_count"`
	TopWeight float64 `json:"top_weight"`
}

// DefaultTieredConfig is the 80/20 split over the top 10
func DefaultTieredConfig() TieredConfig {
	return TieredConfig{TopCount: 10, TopWeight: 0.8}
}

// Validate checks TopCount >= 1 and 0 < TopWeight < 1
func (c TieredConfig) Validate() error {
	if c.TopCount < 1 {
		return fmt.Errorf("%w: top count must be >= 1, got %d", ErrInvalidTieredConfig, c.TopCount)
	}
	if math.IsNaN(c.TopWeight) || c.TopWeight <= 0 || c.TopWeight >= 1 {
		return fmt.Errorf("%w: top weight must be in (0, 1), got %v", ErrInvalidTieredConfig, c.TopWeight)
	}
	return nil
}

// EqualWeights returns n weights of 1/n
func EqualWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return weights
}

// TieredWeights gives the first TopCount positions TopWeight/TopCount each
// and the tail (1-TopWeight)/(n-TopCount) each.
// With no tail (n <= TopCount) every position gets 1/n so the total stays 1.
func TieredWeights(n int, cfg TieredConfig) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n <= cfg.TopCount {
		return EqualWeights(n), nil
	}

	head := cfg.TopWeight / float64(cfg.TopCount)
	tail := (1 - cfg.TopWeight) / float64(n-cfg.TopCount)

	weights := make([]float64, n)
	for i := range weights {
		if i < cfg.TopCount {
			weights[i] = head
		} else {
			weights[i] = tail
		}
	}
	return weights, nil
}
