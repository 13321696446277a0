package contracts

import (
	"math"
	"strconv"
	"time"
)

// TradeList is the sized trade list passed from S6 to reporting
// ⭐ SSOT: S6 → 리포트/API 주문 목록 전달
type TradeList struct {
	RunID        string     `json:"run_id"`
	Date         time.Time  `json:"date"`
	Scheme       Scheme     `json:"scheme"`
	Notional     float64    `json:"notional"`
	PositionSize float64    `json:"position_size,omitempty"` // equal weight only
	Positions    []Position `json:"positions"`
}

// Position is one line of the trade list
type Position struct {
	Rank        int     `json:"rank"`
	Ticker      string  `json:"ticker"`
	Price       float64 `json:"price"`
	Weight      float64 `json:"weight"`       // 0.0 ~ 1.0
	TargetValue float64 `json:"target_value"` // weight * notional
	SharesToBuy int64   `json:"shares_to_buy"`
}

// Invested returns the cash actually spent on the position
func (p *Position) Invested() float64 {
	return float64(p.SharesToBuy) * p.Price
}

// Scheme is a portfolio weighting scheme
type Scheme string

const (
	SchemeEqual  Scheme = "equal"
	SchemeTiered Scheme = "tiered"
)

// TotalWeight returns the sum of all position weights
func (t *TradeList) TotalWeight() float64 {
	total := 0.0
	for _, pos := range t.Positions {
		total += pos.Weight
	}
	return total
}

// TotalInvested returns the sum of shares * price over all positions
func (t *TradeList) TotalInvested() float64 {
	total := 0.0
	for i := range t.Positions {
		total += t.Positions[i].Invested()
	}
	return total
}

// Cash returns the residual cash left by flooring share counts
func (t *TradeList) Cash() float64 {
	return t.Notional - t.TotalInvested()
}

// Count returns the number of positions
func (t *TradeList) Count() int {
	return len(t.Positions)
}

// GetPosition finds a position by ticker
func (t *TradeList) GetPosition(ticker string) (*Position, bool) {
	for i := range t.Positions {
		if t.Positions[i].Ticker == ticker {
			return &t.Positions[i], true
		}
	}
	return nil, false
}

// HorizonReturns holds one simulated portfolio return per horizon
type HorizonReturns map[Horizon]float64

// Values returns the returns ordered 1M, 3M, 6M, 1Y
func (h HorizonReturns) Values() []float64 {
	values := make([]float64, 0, len(AllHorizons()))
	for _, hz := range AllHorizons() {
		values = append(values, h[hz])
	}
	return values
}

// ReturnComparison is the S7 output: equal weight vs tiered weight
type ReturnComparison struct {
	Equal     HorizonReturns `json:"equal"`
	Tiered    HorizonReturns `json:"tiered"`
	TopCount  int            `json:"top_count"`
	TopWeight float64        `json:"top_weight"`
}

// ValidateNotional checks that a portfolio size is a positive finite number
func ValidateNotional(notional float64) error {
	input := strconv.FormatFloat(notional, 'f', -1, 64)
	switch {
	case math.IsNaN(notional) || math.IsInf(notional, 0):
		return &InvalidPortfolioSizeError{Input: input, Reason: "must be a finite number"}
	case notional <= 0:
		return &InvalidPortfolioSizeError{Input: input, Reason: "must be greater than zero"}
	}
	return nil
}
