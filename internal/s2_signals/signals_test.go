package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// record builds a record with metrics in AllMetrics order; nil = missing
func record(ticker string, metrics ...*float64) *contracts.SecurityRecord {
	rec := contracts.NewSecurityRecord(ticker, 100)
	for i, m := range contracts.AllMetrics() {
		if i < len(metrics) {
			rec.SetMetric(m, metrics[i])
		}
	}
	return rec
}

func f(v float64) *float64 { return &v }

func universe(records ...*contracts.SecurityRecord) *contracts.Universe {
	return contracts.NewUniverse("test", time.Now(), records)
}

func TestPercentileOfScore(t *testing.T) {
	values := []float64{10, 20, 20, 30}

	tests := []struct {
		v    float64
		want float64
	}{
		{10, 0.125},
		{20, 0.5},
		{30, 0.875},
		{5, 0},
		{35, 1},
		{25, 0.75},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.v), func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentileOfScore(values, tt.v), 1e-12)
		})
	}

	assert.Equal(t, 0.5, PercentileOfScore([]float64{42}, 42))
	assert.True(t, math.IsNaN(PercentileOfScore(nil, 1)))
}

func TestPercentileSortedMatchesLinear(t *testing.T) {
	values := []float64{1, 3, 3, 3, 7, 9, 9, 12}
	for _, v := range append(values, 0, 5, 13) {
		assert.InDelta(t, PercentileOfScore(values, v), percentileSorted(values, v), 1e-12, "v=%v", v)
	}
}

func TestNormalize(t *testing.T) {
	u := universe(
		record("A", f(10), f(1), f(1), f(5), nil),
		record("B", nil, f(3), f(1), f(5), f(2)),
		record("C", f(20), nil, f(1), f(5), f(4)),
	)

	require.NoError(t, NewNormalizer(logger.Nop()).Normalize(context.Background(), u))

	for _, rec := range u.Records {
		assert.Empty(t, rec.MissingMetrics(), rec.Ticker)
	}
	pe, _ := u.Records[1].MetricValue(contracts.MetricPE)
	assert.InDelta(t, 15.0, pe, 1e-12)
	pb, _ := u.Records[2].MetricValue(contracts.MetricPB)
	assert.InDelta(t, 2.0, pb, 1e-12)
	evgp, _ := u.Records[0].MetricValue(contracts.MetricEVGP)
	assert.InDelta(t, 3.0, evgp, 1e-12)
}

func TestNormalize_Idempotent(t *testing.T) {
	u := universe(
		record("A", f(10), nil, f(1), f(5), f(2)),
		record("B", nil, f(3), f(2), nil, f(2)),
	)
	n := NewNormalizer(logger.Nop())
	require.NoError(t, n.Normalize(context.Background(), u))

	snapshot := make(map[string]map[contracts.Metric]float64)
	for _, rec := range u.Records {
		snapshot[rec.Ticker] = map[contracts.Metric]float64{}
		for _, m := range contracts.AllMetrics() {
			snapshot[rec.Ticker][m], _ = rec.MetricValue(m)
		}
	}

	require.NoError(t, n.Normalize(context.Background(), u))
	for _, rec := range u.Records {
		for _, m := range contracts.AllMetrics() {
			v, _ := rec.MetricValue(m)
			assert.Equal(t, snapshot[rec.Ticker][m], v)
		}
	}
}

func TestNormalize_AllNullColumn(t *testing.T) {
	u := universe(
		record("A", f(10), f(1), nil, f(5), nil),
		record("B", nil, f(2), nil, f(5), nil),
	)

	err := NewNormalizer(logger.Nop()).Normalize(context.Background(), u)

	var insufficient *contracts.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, contracts.MetricPS, insufficient.Metric)

	// no partial fill
	_, ok := u.Records[1].MetricValue(contracts.MetricPE)
	assert.False(t, ok)
}

func TestNormalize_EmptyUniverse(t *testing.T) {
	assert.NoError(t, NewNormalizer(logger.Nop()).Normalize(context.Background(), universe()))
}

func TestRank_RequiresNormalizedMetrics(t *testing.T) {
	u := universe(record("A", nil, f(1), f(1), f(1), f(1)))

	err := NewPercentileRanker(logger.Nop()).Rank(context.Background(), u)

	var inv *contracts.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "A", inv.Ticker)
	assert.Equal(t, contracts.StagePercentile, inv.Stage)
}

func TestScore_RequiresPercentiles(t *testing.T) {
	u := universe(record("A", f(1), f(1), f(1), f(1), f(1)))

	err := NewScorer(logger.Nop()).Score(context.Background(), u)

	var inv *contracts.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, contracts.StageComposite, inv.Stage)
	assert.Nil(t, u.Records[0].CompositeScore)
}

func TestEndToEnd_ThreeTickers(t *testing.T) {
	u := universe(
		record("MID", f(20), f(2), f(1), f(5), f(2)),
		record("CHEAP", f(10), f(1), f(1), f(5), f(2)),
		record("RICH", f(30), f(3), f(1), f(5), f(2)),
	)
	ctx := context.Background()
	log := logger.Nop()

	require.NoError(t, NewNormalizer(log).Normalize(ctx, u))
	require.NoError(t, NewPercentileRanker(log).Rank(ctx, u))
	require.NoError(t, NewScorer(log).Score(ctx, u))

	cheap, _ := u.Get("CHEAP")
	mid, _ := u.Get("MID")
	rich, _ := u.Get("RICH")

	// constant columns → 0.5 for every record
	for _, rec := range u.Records {
		for _, m := range []contracts.Metric{contracts.MetricPS, contracts.MetricEVEBITDA, contracts.MetricEVGP} {
			assert.Equal(t, 0.5, rec.Percentiles[m])
		}
	}

	assert.InDelta(t, 1.0/6, cheap.Percentiles[contracts.MetricPE], 1e-12)
	assert.InDelta(t, 0.5, mid.Percentiles[contracts.MetricPE], 1e-12)
	assert.InDelta(t, 5.0/6, rich.Percentiles[contracts.MetricPE], 1e-12)

	cs, _ := cheap.Score()
	ms, _ := mid.Score()
	rs, _ := rich.Score()
	assert.Less(t, cs, ms)
	assert.Less(t, ms, rs)
	assert.InDelta(t, (1.0/6+1.0/6+0.5*3)/5, cs, 1e-12)

	for _, rec := range u.Records {
		for _, p := range rec.Percentiles {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	}
}
