package s2_signals

import (
	"context"
	"fmt"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Scorer computes the composite value score (lower = cheaper)
type Scorer struct {
	logger *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(log *logger.Logger) *Scorer {
	return &Scorer{
		logger: log.WithStage(string(contracts.StageComposite)),
	}
}

// Score sets CompositeScore to the mean of the five percentiles.
// Every record is checked before any score is written.
func (s *Scorer) Score(ctx context.Context, u *contracts.Universe) error {
	if u.IsEmpty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, rec := range u.Records {
		if !rec.HasAllPercentiles() {
			return &contracts.InvariantError{
				Stage:  contracts.StageComposite,
				Ticker: rec.Ticker,
				Detail: fmt.Sprintf("missing percentile, have %d of %d", len(rec.Percentiles), len(contracts.AllMetrics())),
			}
		}
	}

	metrics := contracts.AllMetrics()
	for _, rec := range u.Records {
		sum := 0.0
		for _, m := range metrics {
			sum += rec.Percentiles[m]
		}
		score := sum / float64(len(metrics))
		rec.CompositeScore = &score
	}

	s.logger.WithField("records", u.Count()).Info("Composite scores computed")
	return nil
}
