package backtest

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Simulator computes hypothetical trailing returns of a weighted portfolio
// ⭐ SSOT: S7 기간별 가상 수익률은 여기서만
type Simulator struct {
	logger *logger.Logger
}

// NewSimulator creates a new return simulator
func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{
		logger: log.WithStage(string(contracts.StageSimulate)),
	}
}

// Simulate returns, for each horizon h,
//
//	Σ w_i * notional * r_i[h] / ((1 + r_i[1Y]) * notional)
//
// The 1Y return is the denominator for every horizon (kept as-is for parity
// with existing reports). Every record contributes, including the last.
func (s *Simulator) Simulate(ctx context.Context, u *contracts.Universe, weights []float64, notional float64) (contracts.HorizonReturns, error) {
	if err := contracts.ValidateNotional(notional); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return nil, &contracts.EmptyUniverseError{Stage: contracts.StageSimulate}
	}
	if len(weights) != u.Count() {
		return nil, &contracts.InvariantError{
			Stage:  contracts.StageSimulate,
			Detail: fmt.Sprintf("%d weights for %d records", len(weights), u.Count()),
		}
	}
	if floats.HasNaN(weights) {
		return nil, &contracts.InvariantError{Stage: contracts.StageSimulate, Detail: "NaN weight"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(contracts.HorizonReturns, len(contracts.AllHorizons()))
	for _, h := range contracts.AllHorizons() {
		result[h] = 0
	}

	for i, rec := range u.Records {
		denom := (1 + rec.PriceReturns[contracts.Horizon1Y]) * notional
		if denom == 0 {
			return nil, &contracts.InvariantError{
				Stage:  contracts.StageSimulate,
				Ticker: rec.Ticker,
				Detail: "1Y return of -100% makes the denominator zero",
			}
		}
		for _, h := range contracts.AllHorizons() {
			result[h] += weights[i] * notional * rec.PriceReturns[h] / denom
		}
	}

	for _, h := range contracts.AllHorizons() {
		if math.IsNaN(result[h]) || math.IsInf(result[h], 0) {
			return nil, &contracts.InvariantError{Stage: contracts.StageSimulate, Detail: fmt.Sprintf("non-finite %s return", h)}
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"records":    u.Count(),
		"weight_sum": floats.Sum(weights),
		"1M":         result[contracts.Horizon1M],
		"1Y":         result[contracts.Horizon1Y],
	}).Debug("Returns simulated")

	return result, nil
}
