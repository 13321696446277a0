package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/contracts"
)

func record(ticker string, metrics map[contracts.Metric]float64) *contracts.SecurityRecord {
	rec := contracts.NewSecurityRecord(ticker, 10)
	for m, v := range metrics {
		v := v
		rec.Metrics[m] = &v
	}
	return rec
}

func allMetrics(v float64) map[contracts.Metric]float64 {
	out := make(map[contracts.Metric]float64)
	for _, m := range contracts.AllMetrics() {
		out[m] = v
	}
	return out
}

func TestQualityGate_Check(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	gate := NewQualityGate(DefaultConfig())

	tests := []struct {
		name       string
		requested  int
		records    []*contracts.SecurityRecord
		wantPassed bool
		wantFailed []string
		wantPrice  float64
	}{
		{
			name:       "full coverage",
			requested:  2,
			records:    []*contracts.SecurityRecord{record("A", allMetrics(1)), record("B", allMetrics(2))},
			wantPassed: true,
			wantPrice:  1.0,
		},
		{
			name:      "missing price and ev/gp",
			requested: 4,
			records: []*contracts.SecurityRecord{
				record("A", map[contracts.Metric]float64{
					contracts.MetricPE: 1, contracts.MetricPB: 1, contracts.MetricPS: 1, contracts.MetricEVEBITDA: 1,
				}),
				record("B", allMetrics(2)),
			},
			wantFailed: []string{string(contracts.MetricEVGP), CoveragePrice},
			wantPrice:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := contracts.NewUniverse("run-1", date, tt.records)
			snapshot := gate.Check(tt.requested, u)

			require.NotNil(t, snapshot)
			assert.Equal(t, date, snapshot.Date)
			assert.Equal(t, tt.requested, snapshot.TotalStocks)
			assert.Equal(t, len(tt.records), snapshot.ValidStocks)
			assert.InDelta(t, tt.wantPrice, snapshot.Coverage[CoveragePrice], 1e-9)
			assert.Equal(t, tt.wantPassed, snapshot.Passed)
			assert.Equal(t, tt.wantPassed, snapshot.IsValid())
			assert.Equal(t, tt.wantFailed, snapshot.Failed)
			assert.GreaterOrEqual(t, snapshot.QualityScore, 0.0)
			assert.LessOrEqual(t, snapshot.QualityScore, 1.0)
		})
	}
}

func TestQualityGate_EmptyUniverse(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())
	snapshot := gate.Check(0, nil)

	assert.Equal(t, 0, snapshot.ValidStocks)
	assert.False(t, snapshot.IsValid())
	assert.Equal(t, 0.0, snapshot.Coverage[string(contracts.MetricPE)])
}

func TestQualityGate_calculateScore(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())

	tests := []struct {
		name     string
		coverage map[string]float64
		wantMin  float64
		wantMax  float64
	}{
		{
			name: "perfect coverage",
			coverage: map[string]float64{
				CoveragePrice: 1.0,
				"pe_ratio":    1.0,
				"pb_ratio":    1.0,
				"ps_ratio":    1.0,
				"ev_ebitda":   1.0,
				"ev_gp":       1.0,
			},
			wantMin: 0.99,
			wantMax: 1.01,
		},
		{
			name: "price only",
			coverage: map[string]float64{
				CoveragePrice: 1.0,
			},
			wantMin: 0.49,
			wantMax: 0.51,
		},
		{
			name: "poor coverage",
			coverage: map[string]float64{
				CoveragePrice: 0.60,
				"pe_ratio":    0.40,
				"pb_ratio":    0.40,
				"ps_ratio":    0.40,
				"ev_ebitda":   0.40,
				"ev_gp":       0.40,
			},
			wantMin: 0.49,
			wantMax: 0.51,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := gate.calculateScore(tt.coverage)
			assert.GreaterOrEqual(t, score, tt.wantMin)
			assert.LessOrEqual(t, score, tt.wantMax)
		})
	}
}
