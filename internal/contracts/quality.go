package contracts

import "time"

// DataQualitySnapshot summarizes field coverage of a built universe
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TotalStocks  int                `json:"total_stocks"`  // requested tickers
	ValidStocks  int                `json:"valid_stocks"`  // records in the universe
	Coverage     map[string]float64 `json:"coverage"`      // 데이터별 커버리지
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`        // 품질 기준 통과 여부
	Failed       []string           `json:"failed,omitempty"`
}

// IsValid checks if the snapshot met every threshold and has usable records
func (d *DataQualitySnapshot) IsValid() bool {
	return d.Passed && d.ValidStocks > 0
}

// CoverageRate returns the average coverage rate across all fields
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
