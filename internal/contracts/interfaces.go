package contracts

import "context"

// RawFundamentals is what the data provider returns for one ticker.
// Pointer fields are nil when the provider omitted them.
type RawFundamentals struct {
	Ticker          string   `json:"ticker"`
	LatestPrice     *float64 `json:"latest_price"`
	PERatio         *float64 `json:"pe_ratio"`
	PriceToBook     *float64 `json:"price_to_book"`
	PriceToSales    *float64 `json:"price_to_sales"`
	EnterpriseValue *float64 `json:"enterprise_value"`
	EBITDA          *float64 `json:"ebitda"`
	GrossProfit     *float64 `json:"gross_profit"`

	// trailing price change, fractional (0.05 = +5%)
	Month1Change *float64 `json:"month1_change"`
	Month3Change *float64 `json:"month3_change"`
	Month6Change *float64 `json:"month6_change"`
	Year1Change  *float64 `json:"year1_change"`
}

// FundamentalsProvider fetches raw fundamentals for a batch of tickers (S0)
// ⭐ SSOT: S0 외부 데이터 제공자 인터페이스
//
// Tickers absent from the returned map are treated as unavailable.
type FundamentalsProvider interface {
	FetchBatch(ctx context.Context, tickers []string) (map[string]*RawFundamentals, error)
}
