package s2_signals

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// PercentileOfScore returns the tie-averaged percentile of v within values:
//
//	(count(x < v) + 0.5 * count(x == v)) / n
//
// e.g. values [10, 20, 20, 30] → 10: 0.125, 20: 0.5, 30: 0.875. Empty input → NaN.
func PercentileOfScore(values []float64, v float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	less, equal := 0, 0
	for _, x := range values {
		switch {
		case x < v:
			less++
		case x == v:
			equal++
		}
	}
	return (float64(less) + 0.5*float64(equal)) / float64(len(values))
}

// percentileSorted is PercentileOfScore over an ascending slice
func percentileSorted(sorted []float64, v float64) float64 {
	lo := sort.SearchFloat64s(sorted, v)
	hi := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
	return (float64(lo) + 0.5*float64(hi-lo)) / float64(len(sorted))
}

// PercentileRanker ranks every metric within the full universe
// ⭐ SSOT: 지표별 백분위 계산은 여기서만
type PercentileRanker struct {
	logger *logger.Logger
}

// NewPercentileRanker creates a new ranker
func NewPercentileRanker(log *logger.Logger) *PercentileRanker {
	return &PercentileRanker{
		logger: log.WithStage(string(contracts.StagePercentile)),
	}
}

// Rank populates Percentiles for every record and metric.
// Metrics must already be normalized; a null metric is an InvariantError.
func (r *PercentileRanker) Rank(ctx context.Context, u *contracts.Universe) error {
	if u.IsEmpty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := make(map[contracts.Metric][]float64, len(contracts.AllMetrics()))
	for _, m := range contracts.AllMetrics() {
		values := make([]float64, 0, u.Count())
		for _, rec := range u.Records {
			v, ok := rec.MetricValue(m)
			if !ok {
				return &contracts.InvariantError{
					Stage:  contracts.StagePercentile,
					Ticker: rec.Ticker,
					Detail: fmt.Sprintf("metric %s is null, normalize before ranking", m),
				}
			}
			values = append(values, v)
		}
		sort.Float64s(values)
		sorted[m] = values
	}

	for _, rec := range u.Records {
		if rec.Percentiles == nil {
			rec.Percentiles = make(map[contracts.Metric]float64, len(contracts.AllMetrics()))
		}
		for _, m := range contracts.AllMetrics() {
			v, _ := rec.MetricValue(m)
			rec.Percentiles[m] = percentileSorted(sorted[m], v)
		}
	}

	r.logger.WithField("records", u.Count()).Info("Percentiles ranked")
	return nil
}
