package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/wonny/valuescreen/internal/backtest"
	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Sizer converts the selected universe into share counts
// ⭐ SSOT: S6 수량 계산은 여기서만
type Sizer struct {
	simulator *backtest.Simulator
	logger    *logger.Logger
}

// NewSizer creates a new position sizer
func NewSizer(simulator *backtest.Simulator, log *logger.Logger) *Sizer {
	return &Sizer{
		simulator: simulator,
		logger:    log.WithStage(string(contracts.StageSize)),
	}
}

// Size allocates notional/n to every record and sets SharesToBuy = ⌊positionSize/price⌋
func (s *Sizer) Size(ctx context.Context, u *contracts.Universe, notional float64) (*contracts.TradeList, error) {
	if err := contracts.ValidateNotional(notional); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return nil, &contracts.EmptyUniverseError{Stage: contracts.StageSize}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPrices(u); err != nil {
		return nil, err
	}

	n := u.Count()
	positionSize := notional / float64(n)
	weight := 1 / float64(n)

	trades := &contracts.TradeList{
		RunID:        u.RunID,
		Date:         u.Date,
		Scheme:       contracts.SchemeEqual,
		Notional:     notional,
		PositionSize: positionSize,
		Positions:    make([]contracts.Position, 0, n),
	}

	for _, rec := range u.Records {
		shares, err := sharesFor(notional, positionSize, rec)
		if err != nil {
			return nil, err
		}
		rec.SharesToBuy = &shares
		trades.Positions = append(trades.Positions, contracts.Position{
			Rank:        rec.Rank,
			Ticker:      rec.Ticker,
			Price:       rec.Price,
			Weight:      weight,
			TargetValue: positionSize,
			SharesToBuy: shares,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"positions":     n,
		"position_size": positionSize,
		"invested":      trades.TotalInvested(),
		"cash":          trades.Cash(),
	}).Info("Equal-weight trade list sized")

	return trades, nil
}

// TieredTradeList sizes the universe under tiered weights.
// It does not touch SecurityRecord.SharesToBuy, which holds the equal-weight count.
func (s *Sizer) TieredTradeList(ctx context.Context, u *contracts.Universe, notional float64, cfg TieredConfig) (*contracts.TradeList, error) {
	if err := contracts.ValidateNotional(notional); err != nil {
		return nil, err
	}
	if u.IsEmpty() {
		return nil, &contracts.EmptyUniverseError{Stage: contracts.StageSize}
	}
	if err := checkPrices(u); err != nil {
		return nil, err
	}

	weights, err := TieredWeights(u.Count(), cfg)
	if err != nil {
		return nil, err
	}

	trades := &contracts.TradeList{
		RunID:     u.RunID,
		Date:      u.Date,
		Scheme:    contracts.SchemeTiered,
		Notional:  notional,
		Positions: make([]contracts.Position, 0, u.Count()),
	}
	for i, rec := range u.Records {
		target := weights[i] * notional
		shares, err := sharesFor(notional, target, rec)
		if err != nil {
			return nil, err
		}
		trades.Positions = append(trades.Positions, contracts.Position{
			Rank:        rec.Rank,
			Ticker:      rec.Ticker,
			Price:       rec.Price,
			Weight:      weights[i],
			TargetValue: target,
			SharesToBuy: shares,
		})
	}
	return trades, nil
}

// SizeTiered computes equal and tiered weights and simulates both
func (s *Sizer) SizeTiered(ctx context.Context, u *contracts.Universe, notional float64, cfg TieredConfig) (contracts.HorizonReturns, contracts.HorizonReturns, error) {
	if u.IsEmpty() {
		return nil, nil, &contracts.EmptyUniverseError{Stage: contracts.StageSimulate}
	}

	tiered, err := TieredWeights(u.Count(), cfg)
	if err != nil {
		return nil, nil, err
	}

	equalReturns, err := s.simulator.Simulate(ctx, u, EqualWeights(u.Count()), notional)
	if err != nil {
		return nil, nil, fmt.Errorf("equal weight: %w", err)
	}
	tieredReturns, err := s.simulator.Simulate(ctx, u, tiered, notional)
	if err != nil {
		return nil, nil, fmt.Errorf("tiered weight: %w", err)
	}
	return equalReturns, tieredReturns, nil
}

// MaxShares is the largest share count float64 represents exactly (2^53)
const MaxShares int64 = 1 << 53

// ErrTooManyShares is returned when ⌊value/price⌋ exceeds MaxShares
var ErrTooManyShares = errors.New("share count exceeds limit")

// SharesFor returns ⌊value/price⌋, guaranteeing shares*price <= value < (shares+1)*price
// in float64 arithmetic as well.
func SharesFor(value, price float64) (int64, error) {
	if !(price > 0) || !(value > 0) || math.IsInf(price, 0) || math.IsInf(value, 0) {
		return 0, nil
	}
	q := decimal.NewFromFloat(value).
		DivRound(decimal.NewFromFloat(price), 12).
		Floor()
	if q.GreaterThan(decimal.NewFromInt(MaxShares)) {
		return 0, ErrTooManyShares
	}
	shares := q.IntPart()

	// decimal 반올림 오차는 최대 1주
	if shares > 0 && float64(shares)*price > value {
		shares--
	} else if shares < MaxShares && float64(shares+1)*price <= value {
		shares++
	}
	return shares, nil
}

// sharesFor wraps SharesFor, reporting an oversized position as an invalid notional
func sharesFor(notional, target float64, rec *contracts.SecurityRecord) (int64, error) {
	shares, err := SharesFor(target, rec.Price)
	if err != nil {
		return 0, &contracts.InvalidPortfolioSizeError{
			Input:  strconv.FormatFloat(notional, 'f', -1, 64),
			Reason: fmt.Sprintf("%s position exceeds %d shares at price %v", rec.Ticker, MaxShares, rec.Price),
		}
	}
	return shares, nil
}

func checkPrices(u *contracts.Universe) error {
	for _, rec := range u.Records {
		if !(rec.Price > 0) {
			return &contracts.InvariantError{
				Stage:  contracts.StageSize,
				Ticker: rec.Ticker,
				Detail: fmt.Sprintf("price must be positive, got %v", rec.Price),
			}
		}
	}
	return nil
}
