package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/internal/metrics"
	"github.com/wonny/valuescreen/internal/portfolio"
	"github.com/wonny/valuescreen/internal/s0_data/collector"
	"github.com/wonny/valuescreen/pkg/logger"
)

type staticProvider map[string]*contracts.RawFundamentals

func (p staticProvider) FetchBatch(ctx context.Context, tickers []string) (map[string]*contracts.RawFundamentals, error) {
	out := make(map[string]*contracts.RawFundamentals)
	for _, t := range tickers {
		if raw, ok := p[t]; ok {
			out[t] = raw
		}
	}
	return out, nil
}

func f(v float64) *float64 { return &v }

func raw(ticker string, price, pe, pb float64) *contracts.RawFundamentals {
	return &contracts.RawFundamentals{
		Ticker:          ticker,
		LatestPrice:     f(price),
		PERatio:         f(pe),
		PriceToBook:     f(pb),
		PriceToSales:    f(1),
		EnterpriseValue: f(500),
		EBITDA:          f(100),
		GrossProfit:     f(250),
		Month1Change:    f(0.01),
		Month3Change:    f(0.02),
		Month6Change:    f(0.04),
		Year1Change:     f(0.10),
	}
}

func newTestOrchestrator(p contracts.FundamentalsProvider) *Orchestrator {
	log := logger.Nop()
	c := collector.NewCollector(p, nil, collector.Config{BatchSize: 2, Workers: 2}, log)
	return New(c, metrics.New(), log)
}

func scenarioProvider() staticProvider {
	noPrice := raw("NOPX", 1, 5, 5)
	noPrice.LatestPrice = nil
	return staticProvider{
		"MID":   raw("MID", 50, 20, 2),
		"CHEAP": raw("CHEAP", 25, 10, 1),
		"RICH":  raw("RICH", 100, 30, 3),
		"NOPX":  noPrice,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	o := newTestOrchestrator(scenarioProvider())

	result, err := o.Run(context.Background(), RunConfig{
		Tickers:  []string{"MID", "CHEAP", "RICH", "NOPX", "GONE"},
		Notional: 10_000,
		TopK:     2,
		Tiered:   portfolio.TieredConfig{TopCount: 1, TopWeight: 0.8},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"CHEAP", "MID"}, result.Selected.Tickers())
	assert.Len(t, result.Stages, len(contracts.AllStages()))
	assert.Len(t, result.CompletedStages, len(contracts.AllStages()))
	assert.Equal(t, 3, result.Universe.Count())

	require.NotNil(t, result.Quality)
	assert.InDelta(t, 0.6, result.Quality.Coverage["price"], 1e-12)
	assert.False(t, result.Quality.Passed)
	assert.Equal(t, []string{"price"}, result.Quality.Failed)

	reasons := map[string]string{}
	for _, u := range result.Unavailable {
		reasons[u.Ticker] = u.Field
	}
	assert.Contains(t, reasons, "GONE")
	assert.Equal(t, "latestPrice", reasons["NOPX"])

	require.NotNil(t, result.Trades)
	assert.Equal(t, 5_000.0, result.Trades.PositionSize)
	assert.Equal(t, int64(200), result.Trades.Positions[0].SharesToBuy)
	assert.Equal(t, int64(100), result.Trades.Positions[1].SharesToBuy)
	assert.InDelta(t, 0.8, result.TieredTrades.Positions[0].Weight, 1e-12)

	require.NotNil(t, result.Returns)
	assert.InDelta(t, 0.1/1.1, result.Returns.Equal[contracts.Horizon1Y], 1e-12)
	assert.InDelta(t, 0.1/1.1, result.Returns.Tiered[contracts.Horizon1Y], 1e-12)
}

func TestRun_PEMode(t *testing.T) {
	p := scenarioProvider()
	p["NEG"] = raw("NEG", 10, -4, 1)

	result, err := newTestOrchestrator(p).Run(context.Background(), RunConfig{
		Tickers:  []string{"RICH", "NEG", "MID", "CHEAP"},
		Notional: 1_000,
		TopK:     2,
		Mode:     ModePE,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CHEAP", "MID"}, result.Selected.Tickers())

	for _, st := range result.Stages {
		assert.NotEqual(t, contracts.StageNormalize, st.Stage)
	}
}

func TestRun_InsufficientData(t *testing.T) {
	p := scenarioProvider()
	for _, r := range p {
		r.PriceToSales = nil
	}

	result, err := newTestOrchestrator(p).Run(context.Background(), RunConfig{
		Tickers:  []string{"MID", "CHEAP", "RICH"},
		Notional: 1_000,
	})
	require.Error(t, err)

	var stageErr *contracts.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, contracts.StageNormalize, stageErr.Stage)
	assert.Equal(t, contracts.MetricPS, stageErr.Metric)

	var insufficient *contracts.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, contracts.MetricPS, insufficient.Metric)

	assert.False(t, result.Success)
	assert.Nil(t, result.Selected)
	assert.Nil(t, result.Trades)
}

func TestRun_EmptyUniverse(t *testing.T) {
	_, err := newTestOrchestrator(staticProvider{}).Run(context.Background(), RunConfig{
		Tickers:  []string{"GONE"},
		Notional: 1_000,
	})

	var empty *contracts.EmptyUniverseError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, contracts.StageUniverse, empty.Stage)
}

type failingProvider struct{}

func (failingProvider) FetchBatch(ctx context.Context, tickers []string) (map[string]*contracts.RawFundamentals, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestRun_ProviderDown(t *testing.T) {
	_, err := newTestOrchestrator(failingProvider{}).Run(context.Background(), RunConfig{
		Tickers:  []string{"AAA", "BBB"},
		Notional: 1_000,
	})

	var stageErr *contracts.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, contracts.StageFetch, stageErr.Stage)

	var down *contracts.ProviderUnavailableError
	assert.True(t, errors.As(err, &down))
	var empty *contracts.EmptyUniverseError
	assert.False(t, errors.As(err, &empty))
}

func TestRun_InvalidNotional(t *testing.T) {
	_, err := newTestOrchestrator(scenarioProvider()).Run(context.Background(), RunConfig{
		Tickers:  []string{"MID"},
		Notional: -1,
	})

	var invalid *contracts.InvalidPortfolioSizeError
	assert.True(t, errors.As(err, &invalid))
}

func TestRunUniverse_EmptySelectionFailsAtSizing(t *testing.T) {
	o := newTestOrchestrator(staticProvider{})
	u := contracts.NewUniverse("run", time.Now(), nil)

	result, err := o.RunUniverse(context.Background(), RunConfig{Notional: 1_000}, u)

	var empty *contracts.EmptyUniverseError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, contracts.StageSize, empty.Stage)
	assert.Nil(t, result.Trades)
}
