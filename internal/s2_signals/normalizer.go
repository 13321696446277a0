package s2_signals

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Normalizer fills missing metrics with the cross-sectional mean
// ⭐ SSOT: 결측치 대체는 여기서만
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log.WithStage(string(contracts.StageNormalize)),
	}
}

// Normalize replaces every null metric with that metric's mean over the universe.
//
// All means are computed before any record is touched, so an
// InsufficientDataError leaves the universe unchanged. Running it twice is a no-op.
func (n *Normalizer) Normalize(ctx context.Context, u *contracts.Universe) error {
	if u.IsEmpty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	means := make(map[contracts.Metric]float64, len(contracts.AllMetrics()))
	for _, m := range contracts.AllMetrics() {
		values := make([]float64, 0, u.Count())
		for _, rec := range u.Records {
			if v, ok := rec.MetricValue(m); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return &contracts.InsufficientDataError{Metric: m}
		}
		means[m] = stat.Mean(values, nil)
	}

	filled := make(map[string]int)
	for _, rec := range u.Records {
		for _, m := range rec.MissingMetrics() {
			mean := means[m]
			rec.SetMetric(m, &mean)
			filled[string(m)]++
		}
	}

	n.logger.WithFields(map[string]interface{}{
		"records": u.Count(),
		"filled":  filled,
	}).Info("Metrics normalized")

	return nil
}
