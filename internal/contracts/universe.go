package contracts

import "time"

// Universe is the ordered snapshot of securities for one pipeline run
// ⭐ SSOT: S1 → S2..S7 유니버스 전달
//
// Records keep input ticker order until the selector re-sorts them.
type Universe struct {
	RunID   string            `json:"run_id"`
	Date    time.Time         `json:"date"`
	Records []*SecurityRecord `json:"records"`
}

// NewUniverse builds a universe from a fully assembled record slice
func NewUniverse(runID string, date time.Time, records []*SecurityRecord) *Universe {
	recs := make([]*SecurityRecord, len(records))
	copy(recs, records)
	return &Universe{
		RunID:   runID,
		Date:    date,
		Records: recs,
	}
}

// Count returns the number of records
func (u *Universe) Count() int {
	if u == nil {
		return 0
	}
	return len(u.Records)
}

// IsEmpty reports whether the universe has no records
func (u *Universe) IsEmpty() bool {
	return u.Count() == 0
}

// Tickers returns tickers in current order
func (u *Universe) Tickers() []string {
	tickers := make([]string, 0, u.Count())
	for _, r := range u.Records {
		tickers = append(tickers, r.Ticker)
	}
	return tickers
}

// Get finds a record by ticker
func (u *Universe) Get(ticker string) (*SecurityRecord, bool) {
	for _, r := range u.Records {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return nil, false
}

// WithRecords returns a universe sharing run metadata with different records
func (u *Universe) WithRecords(records []*SecurityRecord) *Universe {
	return NewUniverse(u.RunID, u.Date, records)
}
