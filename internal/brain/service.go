package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/valuescreen/internal/portfolio"
	"github.com/wonny/valuescreen/internal/strategyconfig"
	"github.com/wonny/valuescreen/pkg/logger"
	"github.com/wonny/valuescreen/pkg/redis"
)

// TickerSource loads the ticker list named by the strategy (s1_universe.Loader)
type TickerSource interface {
	Load(ctx context.Context, source string) ([]string, error)
}

// ResultStore persists the latest run result (pkg/redis.Cache)
type ResultStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service runs screens for a strategy and remembers the latest result.
// Used by the CLI, the API and the scheduler.
type Service struct {
	orchestrator *Orchestrator
	tickers      TickerSource
	strategy     *strategyconfig.Config
	configHash   string
	store        ResultStore
	logger       *logger.Logger

	mu     sync.RWMutex
	latest *RunResult
}

// NewService creates a screening service. store may be nil.
func NewService(o *Orchestrator, tickers TickerSource, strategy *strategyconfig.Config, store ResultStore, log *logger.Logger) (*Service, error) {
	if strategy == nil {
		strategy = strategyconfig.Default()
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	return &Service{
		orchestrator: o,
		tickers:      tickers,
		strategy:     strategy,
		configHash:   hash,
		store:        store,
		logger:       log.WithField("strategy_id", strategy.Meta.StrategyID),
	}, nil
}

// Strategy returns the active strategy config
func (s *Service) Strategy() *strategyconfig.Config {
	return s.strategy
}

// Screen runs the strategy over its configured ticker source
func (s *Service) Screen(ctx context.Context, notional float64) (*RunResult, error) {
	if s.tickers == nil {
		return nil, fmt.Errorf("no ticker source configured")
	}
	tickers, err := s.tickers.Load(ctx, s.strategy.Universe.Source)
	if err != nil {
		return nil, fmt.Errorf("load tickers: %w", err)
	}
	return s.ScreenTickers(ctx, tickers, notional)
}

// ScreenTickers runs the strategy over an explicit ticker list
func (s *Service) ScreenTickers(ctx context.Context, tickers []string, notional float64) (*RunResult, error) {
	result, err := s.orchestrator.Run(ctx, s.RunConfig(tickers, notional))
	if err != nil {
		return result, err
	}

	snap, err := strategyconfig.NewDecisionSnapshot(s.strategy, result.RunID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build decision snapshot")
	} else {
		result.Decision = snap
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(ctx, redis.LatestScreenKey(s.strategy.Meta.StrategyID), result, redis.TTLScreen); err != nil {
			s.logger.WithError(err).Warn("Failed to cache latest screen result")
		}
	}
	return result, nil
}

// RunConfig builds the orchestrator config from the strategy
func (s *Service) RunConfig(tickers []string, notional float64) RunConfig {
	return RunConfig{
		Tickers:  tickers,
		Notional: notional,
		TopK:     s.strategy.Selection.TopK,
		Mode:     s.strategy.Selection.Mode,
		Tiered: portfolio.TieredConfig{
			TopCount:  s.strategy.Weighting.Tiered.TopCount,
			TopWeight: s.strategy.Weighting.Tiered.TopWeight,
		},
		ConfigHash: s.configHash,
	}
}

// Latest returns the most recent successful result from memory or the store
func (s *Service) Latest(ctx context.Context) (*RunResult, bool, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, true, nil
	}

	if s.store == nil {
		return nil, false, nil
	}
	var cached RunResult
	found, err := s.store.Get(ctx, redis.LatestScreenKey(s.strategy.Meta.StrategyID), &cached)
	if err != nil || !found {
		return nil, false, err
	}
	return &cached, true, nil
}
