package iex

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/valuescreen/internal/contracts"
)

// batchEntry is one symbol in the /stock/market/batch response
type batchEntry struct {
	Quote         *quoteDTO         `json:"quote"`
	AdvancedStats *advancedStatsDTO `json:"advanced-stats"`
}

type quoteDTO struct {
	Symbol      string    `json:"symbol"`
	LatestPrice flexFloat `json:"latestPrice"`
	PERatio     flexFloat `json:"peRatio"`
}

type advancedStatsDTO struct {
	PriceToBook     flexFloat `json:"priceToBook"`
	PriceToSales    flexFloat `json:"priceToSales"`
	EnterpriseValue flexFloat `json:"enterpriseValue"`
	EBITDA          flexFloat `json:"EBITDA"`
	GrossProfit     flexFloat `json:"grossProfit"`

	// 이미 소수 비율 (0.05 = +5%)
	Year1ChangePercent  flexFloat `json:"year1ChangePercent"`
	Month6ChangePercent flexFloat `json:"month6ChangePercent"`
	Month3ChangePercent flexFloat `json:"month3ChangePercent"`
	Month1ChangePercent flexFloat `json:"month1ChangePercent"`
}

// flexFloat accepts a JSON number, a numeric string or null.
// Anything else (e.g. "N/A", objects) decodes to nil instead of failing the batch.
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	f.v = nil

	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.v = &v
	return nil
}

// Ptr returns the decoded value or nil
func (f flexFloat) Ptr() *float64 {
	return f.v
}

// toRaw maps the provider payload to the provider-neutral contract
func (e *batchEntry) toRaw(ticker string) *contracts.RawFundamentals {
	raw := &contracts.RawFundamentals{Ticker: ticker}

	if q := e.Quote; q != nil {
		raw.LatestPrice = q.LatestPrice.Ptr()
		raw.PERatio = q.PERatio.Ptr()
	}

	if a := e.AdvancedStats; a != nil {
		raw.PriceToBook = a.PriceToBook.Ptr()
		raw.PriceToSales = a.PriceToSales.Ptr()
		raw.EnterpriseValue = a.EnterpriseValue.Ptr()
		raw.EBITDA = a.EBITDA.Ptr()
		raw.GrossProfit = a.GrossProfit.Ptr()
		raw.Month1Change = a.Month1ChangePercent.Ptr()
		raw.Month3Change = a.Month3ChangePercent.Ptr()
		raw.Month6Change = a.Month6ChangePercent.Ptr()
		raw.Year1Change = a.Year1ChangePercent.Ptr()
	}

	return raw
}
