package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

func withReturns(ticker string, m1, m3, m6, y1 float64) *contracts.SecurityRecord {
	rec := contracts.NewSecurityRecord(ticker, 10)
	rec.PriceReturns[contracts.Horizon1M] = m1
	rec.PriceReturns[contracts.Horizon3M] = m3
	rec.PriceReturns[contracts.Horizon6M] = m6
	rec.PriceReturns[contracts.Horizon1Y] = y1
	return rec
}

func TestSimulate(t *testing.T) {
	u := contracts.NewUniverse("run", time.Now(), []*contracts.SecurityRecord{
		withReturns("A", 0.02, 0.05, 0.10, 0.20),
		withReturns("B", -0.01, 0.00, 0.04, 0.50),
	})

	got, err := NewSimulator(logger.Nop()).Simulate(context.Background(), u, []float64{0.75, 0.25}, 50_000)
	require.NoError(t, err)

	// 1Y 수익률이 모든 기간의 분모
	assert.InDelta(t, 0.75*0.02/1.2+0.25*-0.01/1.5, got[contracts.Horizon1M], 1e-12)
	assert.InDelta(t, 0.75*0.05/1.2, got[contracts.Horizon3M], 1e-12)
	assert.InDelta(t, 0.75*0.10/1.2+0.25*0.04/1.5, got[contracts.Horizon6M], 1e-12)
	assert.InDelta(t, 0.75*0.20/1.2+0.25*0.50/1.5, got[contracts.Horizon1Y], 1e-12)
	assert.Len(t, got.Values(), 4)
}

func TestSimulate_LastRecordContributes(t *testing.T) {
	u := contracts.NewUniverse("run", time.Now(), []*contracts.SecurityRecord{
		withReturns("A", 0, 0, 0, 0),
		withReturns("LAST", 0.1, 0.1, 0.1, 0),
	})

	got, err := NewSimulator(logger.Nop()).Simulate(context.Background(), u, []float64{0.5, 0.5}, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, got[contracts.Horizon1M], 1e-12)
}

func TestSimulate_NotionalCancels(t *testing.T) {
	u := contracts.NewUniverse("run", time.Now(), []*contracts.SecurityRecord{
		withReturns("A", 0.03, 0.06, 0.09, 0.12),
	})
	s := NewSimulator(logger.Nop())

	small, err := s.Simulate(context.Background(), u, []float64{1}, 1_000)
	require.NoError(t, err)
	large, err := s.Simulate(context.Background(), u, []float64{1}, 1_000_000_000)
	require.NoError(t, err)

	for _, h := range contracts.AllHorizons() {
		assert.InDelta(t, small[h], large[h], 1e-12)
	}
}

func TestSimulate_Errors(t *testing.T) {
	s := NewSimulator(logger.Nop())
	ctx := context.Background()
	one := contracts.NewUniverse("run", time.Now(), []*contracts.SecurityRecord{withReturns("A", 0, 0, 0, 0.1)})
	wipedOut := contracts.NewUniverse("run", time.Now(), []*contracts.SecurityRecord{withReturns("W", 0, 0, 0, -1)})

	_, err := s.Simulate(ctx, contracts.NewUniverse("run", time.Now(), nil), nil, 1000)
	var empty *contracts.EmptyUniverseError
	assert.True(t, errors.As(err, &empty))

	_, err = s.Simulate(ctx, one, []float64{0.5, 0.5}, 1000)
	var inv *contracts.InvariantError
	assert.True(t, errors.As(err, &inv), "weights length mismatch")

	_, err = s.Simulate(ctx, wipedOut, []float64{1}, 1000)
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "W", inv.Ticker)

	_, err = s.Simulate(ctx, one, []float64{1}, 0)
	var invalid *contracts.InvalidPortfolioSizeError
	assert.True(t, errors.As(err, &invalid))
}
