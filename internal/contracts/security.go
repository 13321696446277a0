package contracts

import "math"

// Metric identifies one of the five valuation ratios used for ranking
type Metric string

const (
	MetricPE       Metric = "pe_ratio"  // Price / Earnings
	MetricPB       Metric = "pb_ratio"  // Price / Book
	MetricPS       Metric = "ps_ratio"  // Price / Sales
	MetricEVEBITDA Metric = "ev_ebitda" // Enterprise Value / EBITDA
	MetricEVGP     Metric = "ev_gp"     // Enterprise Value / Gross Profit
)

// AllMetrics returns the metrics in report column order
func AllMetrics() []Metric {
	return []Metric{MetricPE, MetricPB, MetricPS, MetricEVEBITDA, MetricEVGP}
}

// DisplayName returns the spreadsheet column header for the raw ratio
func (m Metric) DisplayName() string {
	switch m {
	case MetricPE:
		return "Price-to-Earnings Ratio"
	case MetricPB:
		return "Price-to-Book Ratio"
	case MetricPS:
		return "Price-to-Sales Ratio"
	case MetricEVEBITDA:
		return "EV/EBITDA"
	case MetricEVGP:
		return "EV/GP"
	default:
		return string(m)
	}
}

// PercentileName returns the spreadsheet column header for the percentile
func (m Metric) PercentileName() string {
	switch m {
	case MetricPE:
		return "PE Percentile"
	case MetricPB:
		return "PB Percentile"
	case MetricPS:
		return "PS Percentile"
	case MetricEVEBITDA:
		return "EV/EBITDA Percentile"
	case MetricEVGP:
		return "EV/GP Percentile"
	default:
		return string(m) + " Percentile"
	}
}

// IsValidMetric checks if a metric string is one of the five known metrics
func IsValidMetric(s string) bool {
	for _, m := range AllMetrics() {
		if string(m) == s {
			return true
		}
	}
	return false
}

// Horizon identifies a trailing price-return lookback
type Horizon string

const (
	Horizon1M Horizon = "1M"
	Horizon3M Horizon = "3M"
	Horizon6M Horizon = "6M"
	Horizon1Y Horizon = "1Y"
)

// AllHorizons returns the horizons from shortest to longest
func AllHorizons() []Horizon {
	return []Horizon{Horizon1M, Horizon3M, Horizon6M, Horizon1Y}
}

// Label returns a human readable horizon label
func (h Horizon) Label() string {
	switch h {
	case Horizon1M:
		return "1 Month"
	case Horizon3M:
		return "3 Month"
	case Horizon6M:
		return "6 Month"
	case Horizon1Y:
		return "1 Year"
	default:
		return string(h)
	}
}

// SecurityRecord is one ticker flowing through the pipeline
// ⭐ SSOT: 모든 단계는 이 레코드를 제자리에서 갱신
//
// Metrics always has exactly five keys and PriceReturns exactly four.
// A missing metric is an explicit nil, never an absent key.
type SecurityRecord struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Rank   int     `json:"rank,omitempty"` // 1-based, set by the selector

	Metrics        map[Metric]*float64 `json:"metrics"`
	Percentiles    map[Metric]float64  `json:"percentiles,omitempty"`
	CompositeScore *float64            `json:"composite_score,omitempty"`
	PriceReturns   map[Horizon]float64 `json:"price_returns"`
	SharesToBuy    *int64              `json:"shares_to_buy,omitempty"`
}

// NewSecurityRecord creates a record with every metric and horizon slot present
func NewSecurityRecord(ticker string, price float64) *SecurityRecord {
	r := &SecurityRecord{
		Ticker:       ticker,
		Price:        price,
		Metrics:      make(map[Metric]*float64, len(AllMetrics())),
		Percentiles:  make(map[Metric]float64, len(AllMetrics())),
		PriceReturns: make(map[Horizon]float64, len(AllHorizons())),
	}
	for _, m := range AllMetrics() {
		r.Metrics[m] = nil
	}
	for _, h := range AllHorizons() {
		r.PriceReturns[h] = 0
	}
	return r
}

// SetMetric stores a metric value; nil or non-finite values are stored as null
func (r *SecurityRecord) SetMetric(m Metric, v *float64) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		r.Metrics[m] = nil
		return
	}
	val := *v
	r.Metrics[m] = &val
}

// MetricValue returns the metric value and whether it is present
func (r *SecurityRecord) MetricValue(m Metric) (float64, bool) {
	v, ok := r.Metrics[m]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// MissingMetrics returns metrics that are still null
func (r *SecurityRecord) MissingMetrics() []Metric {
	missing := make([]Metric, 0)
	for _, m := range AllMetrics() {
		if _, ok := r.MetricValue(m); !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// HasAllPercentiles checks if the ranker populated every metric
func (r *SecurityRecord) HasAllPercentiles() bool {
	for _, m := range AllMetrics() {
		if _, ok := r.Percentiles[m]; !ok {
			return false
		}
	}
	return true
}

// Score returns the composite score and whether it has been computed
func (r *SecurityRecord) Score() (float64, bool) {
	if r.CompositeScore == nil {
		return 0, false
	}
	return *r.CompositeScore, true
}

// Shares returns the share count, 0 if the sizer has not run
func (r *SecurityRecord) Shares() int64 {
	if r.SharesToBuy == nil {
		return 0
	}
	return *r.SharesToBuy
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
