package quality

import (
	"sort"
	"time"

	"github.com/wonny/valuescreen/internal/contracts"
)

// CoveragePrice is the share of requested tickers that made it into the universe
const CoveragePrice = "price"

// QualityGate measures how complete a built universe is.
// Thresholds only flag a run; null metrics are handled by the normalizer.
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage  float64 `yaml:"min_price_coverage"`  // 0.90
	MinMetricCoverage float64 `yaml:"min_metric_coverage"` // 0.70
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:  0.90,
		MinMetricCoverage: 0.70,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check computes coverage for a universe built from requested tickers
// ⭐ SSOT: S1 품질 검증
func (g *QualityGate) Check(requested int, u *contracts.Universe) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		TotalStocks: requested,
		ValidStocks: u.Count(),
		Coverage:    make(map[string]float64),
	}
	if u != nil {
		snapshot.Date = u.Date
	} else {
		snapshot.Date = time.Now()
	}

	// 1. 가격 커버리지
	if requested > 0 {
		snapshot.Coverage[CoveragePrice] = float64(u.Count()) / float64(requested)
	}

	// 2. 지표별 커버리지
	for _, m := range contracts.AllMetrics() {
		snapshot.Coverage[string(m)] = metricCoverage(u, m)
	}

	// 3. 품질 점수 계산
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.Failed = g.failed(snapshot.Coverage)
	snapshot.Passed = len(snapshot.Failed) == 0

	return snapshot
}

// metricCoverage is the share of records with a non-null metric
func metricCoverage(u *contracts.Universe, m contracts.Metric) float64 {
	if u.Count() == 0 {
		return 0
	}
	present := 0
	for _, rec := range u.Records {
		if rec.Metrics[m] != nil {
			present++
		}
	}
	return float64(present) / float64(u.Count())
}

// failed lists coverage keys below their threshold, sorted
func (g *QualityGate) failed(coverage map[string]float64) []string {
	var keys []string
	for key, cov := range coverage {
		threshold := g.config.MinMetricCoverage
		if key == CoveragePrice {
			threshold = g.config.MinPriceCoverage
		}
		if cov < threshold {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		CoveragePrice:                    0.50, // 가격 필수
		string(contracts.MetricPE):       0.10,
		string(contracts.MetricPB):       0.10,
		string(contracts.MetricPS):       0.10,
		string(contracts.MetricEVEBITDA): 0.10,
		string(contracts.MetricEVGP):     0.10,
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	return score
}
