package brain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/valuescreen/internal/backtest"
	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/internal/metrics"
	"github.com/wonny/valuescreen/internal/portfolio"
	"github.com/wonny/valuescreen/internal/s0_data/collector"
	"github.com/wonny/valuescreen/internal/s0_data/quality"
	"github.com/wonny/valuescreen/internal/s1_universe"
	"github.com/wonny/valuescreen/internal/s2_signals"
	"github.com/wonny/valuescreen/internal/selection"
	"github.com/wonny/valuescreen/internal/strategyconfig"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Selection modes
const (
	ModeComposite = "composite" // 5개 지표 백분위 평균
	ModePE        = "pe"        // P/E 단일 지표
)

// Orchestrator coordinates the S0..S7 pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Stage components
	collector  *collector.Collector
	builder    *s1_universe.Builder
	normalizer *s2_signals.Normalizer
	ranker     *s2_signals.PercentileRanker
	scorer     *s2_signals.Scorer
	selector   *selection.Selector
	sizer      *portfolio.Sizer
	simulator  *backtest.Simulator

	// optional S1 coverage check (warn only)
	qualityGate *quality.QualityGate

	metrics *metrics.Registry
	logger  *logger.Logger
}

// RunConfig holds configuration for a pipeline run.
// Notional is explicit; there is no package-level portfolio size.
type RunConfig struct {
	RunID      string
	Date       time.Time
	Tickers    []string
	Notional   float64
	TopK       int
	Mode       string
	Tiered     portfolio.TieredConfig
	ConfigHash string
}

// UnavailableTicker is a ticker dropped during S0/S1
type UnavailableTicker struct {
	Ticker string `json:"ticker"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string                           `json:"run_id"`
	Date            time.Time                        `json:"date"`
	Mode            string                           `json:"mode"`
	ConfigHash      string                           `json:"config_hash,omitempty"`
	Decision        *strategyconfig.DecisionSnapshot `json:"decision,omitempty"`
	Notional        float64                          `json:"notional"`
	Success         bool                             `json:"success"`
	Error           string                           `json:"error,omitempty"`
	CompletedStages []string                         `json:"completed_stages"`
	Stages          []contracts.PipelineResult       `json:"stages"`
	Unavailable     []UnavailableTicker              `json:"unavailable,omitempty"`
	Universe        *contracts.Universe              `json:"-"`
	Selected        *contracts.Universe              `json:"selected,omitempty"`
	Trades          *contracts.TradeList             `json:"trades,omitempty"`
	TieredTrades    *contracts.TradeList             `json:"tiered_trades,omitempty"`
	Returns         *contracts.ReturnComparison      `json:"returns,omitempty"`
	Quality         *contracts.DataQualitySnapshot   `json:"quality,omitempty"`
	DurationMS      int64                            `json:"duration_ms"`
}

// NewOrchestrator creates a new orchestrator. collector may be nil when only RunUniverse is used.
func NewOrchestrator(
	collector *collector.Collector,
	builder *s1_universe.Builder,
	normalizer *s2_signals.Normalizer,
	ranker *s2_signals.PercentileRanker,
	scorer *s2_signals.Scorer,
	selector *selection.Selector,
	sizer *portfolio.Sizer,
	simulator *backtest.Simulator,
	metrics *metrics.Registry,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		collector:  collector,
		builder:    builder,
		normalizer: normalizer,
		ranker:     ranker,
		scorer:     scorer,
		selector:   selector,
		sizer:      sizer,
		simulator:  simulator,
		metrics:    metrics,
		logger:     logger,
	}
}

// New wires the default stage components around a collector
func New(c *collector.Collector, m *metrics.Registry, log *logger.Logger) *Orchestrator {
	simulator := backtest.NewSimulator(log)
	return NewOrchestrator(
		c,
		s1_universe.NewBuilder(log),
		s2_signals.NewNormalizer(log),
		s2_signals.NewPercentileRanker(log),
		s2_signals.NewScorer(log),
		selection.NewSelector(log),
		portfolio.NewSizer(simulator, log),
		simulator,
		m,
		log,
	).WithQualityGate(quality.NewQualityGate(quality.DefaultConfig()))
}

// WithQualityGate enables the post-S1 coverage check
func (o *Orchestrator) WithQualityGate(g *quality.QualityGate) *Orchestrator {
	o.qualityGate = g
	return o
}

// Run executes the complete pipeline
// S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if o.collector == nil {
		return nil, fmt.Errorf("orchestrator has no collector")
	}
	cfg, err := o.prepare(cfg)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := newResult(cfg)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   cfg.RunID,
		"date":     cfg.Date.Format("2006-01-02"),
		"tickers":  len(cfg.Tickers),
		"notional": cfg.Notional,
		"top_k":    cfg.TopK,
		"mode":     cfg.Mode,
	}).Info("Starting pipeline run")

	// S0: Fetch
	var report *collector.FetchReport
	err = o.stage(result, contracts.StageFetch, len(cfg.Tickers), func() (int, error) {
		var err error
		report, err = o.collector.Fetch(ctx, cfg.Tickers, cfg.Date)
		if err != nil {
			return 0, err
		}
		return len(report.Data), nil
	})
	if err != nil {
		return o.fail(result, startTime, err)
	}
	o.metrics.ObserveFetch(len(report.Data), len(report.Unavailable), report.CacheHits)
	result.addUnavailable(report.Unavailable)

	// S1: Universe
	var universe *contracts.Universe
	err = o.stage(result, contracts.StageUniverse, len(report.Data), func() (int, error) {
		u, skipped, err := o.builder.Build(ctx, cfg.RunID, cfg.Date, report.Data)
		if err != nil {
			return 0, err
		}
		result.addUnavailable(skipped)
		if u.IsEmpty() {
			return 0, &contracts.EmptyUniverseError{Stage: contracts.StageUniverse}
		}
		universe = u
		return u.Count(), nil
	})
	if err != nil {
		return o.fail(result, startTime, err)
	}

	if o.qualityGate != nil {
		result.Quality = o.qualityGate.Check(len(cfg.Tickers), universe)
		if !result.Quality.Passed {
			o.logger.WithFields(map[string]interface{}{
				"run_id":        cfg.RunID,
				"quality_score": result.Quality.QualityScore,
				"failed":        result.Quality.Failed,
			}).Warn("Data coverage below threshold, continuing")
		}
	}

	return o.runStages(ctx, cfg, universe, result, startTime)
}

// RunUniverse runs S2..S7 on an already built universe
func (o *Orchestrator) RunUniverse(ctx context.Context, cfg RunConfig, u *contracts.Universe) (*RunResult, error) {
	cfg, err := o.prepare(cfg)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = contracts.NewUniverse(cfg.RunID, cfg.Date, nil)
	}
	return o.runStages(ctx, cfg, u, newResult(cfg), time.Now())
}

func (o *Orchestrator) runStages(ctx context.Context, cfg RunConfig, universe *contracts.Universe, result *RunResult, startTime time.Time) (*RunResult, error) {
	result.Universe = universe
	n := universe.Count()
	var selected *contracts.Universe

	if cfg.Mode == ModePE {
		// S5: P/E 단일 지표 (정규화 없이 결측/음수 제외)
		err := o.stage(result, contracts.StageSelect, n, func() (int, error) {
			var err error
			selected, err = o.selector.SelectByMetric(ctx, universe, contracts.MetricPE, cfg.TopK)
			return selected.Count(), err
		})
		if err != nil {
			return o.fail(result, startTime, err)
		}
	} else {
		// S2: Normalize
		if err := o.stage(result, contracts.StageNormalize, n, func() (int, error) {
			return n, o.normalizer.Normalize(ctx, universe)
		}); err != nil {
			return o.fail(result, startTime, err)
		}

		// S3: Percentile
		if err := o.stage(result, contracts.StagePercentile, n, func() (int, error) {
			return n, o.ranker.Rank(ctx, universe)
		}); err != nil {
			return o.fail(result, startTime, err)
		}

		// S4: Composite
		if err := o.stage(result, contracts.StageComposite, n, func() (int, error) {
			if err := o.scorer.Score(ctx, universe); err != nil {
				return 0, err
			}
			return n, checkFinite(universe)
		}); err != nil {
			return o.fail(result, startTime, err)
		}

		// S5: Select
		if err := o.stage(result, contracts.StageSelect, n, func() (int, error) {
			var err error
			selected, err = o.selector.Select(ctx, universe, cfg.TopK)
			return selected.Count(), err
		}); err != nil {
			return o.fail(result, startTime, err)
		}
	}
	result.Selected = selected

	// S6: Size
	if err := o.stage(result, contracts.StageSize, selected.Count(), func() (int, error) {
		trades, err := o.sizer.Size(ctx, selected, cfg.Notional)
		if err != nil {
			return 0, err
		}
		tiered, err := o.sizer.TieredTradeList(ctx, selected, cfg.Notional, cfg.Tiered)
		if err != nil {
			return 0, err
		}
		result.Trades = trades
		result.TieredTrades = tiered
		return trades.Count(), nil
	}); err != nil {
		return o.fail(result, startTime, err)
	}

	// S7: Simulate
	if err := o.stage(result, contracts.StageSimulate, selected.Count(), func() (int, error) {
		equal, tiered, err := o.sizer.SizeTiered(ctx, selected, cfg.Notional, cfg.Tiered)
		if err != nil {
			return 0, err
		}
		result.Returns = &contracts.ReturnComparison{
			Equal:     equal,
			Tiered:    tiered,
			TopCount:  cfg.Tiered.TopCount,
			TopWeight: cfg.Tiered.TopWeight,
		}
		return len(equal) + len(tiered), nil
	}); err != nil {
		return o.fail(result, startTime, err)
	}

	result.Success = true
	result.DurationMS = time.Since(startTime).Milliseconds()
	o.metrics.ObserveRun(selected.Count(), nil)

	o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"selected":    selected.Count(),
		"unavailable": len(result.Unavailable),
		"duration_ms": result.DurationMS,
	}).Info("Pipeline run completed")

	return result, nil
}

// prepare fills defaults and validates the run config before any stage runs
func (o *Orchestrator) prepare(cfg RunConfig) (RunConfig, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Date.IsZero() {
		cfg.Date = time.Now()
	}
	if cfg.TopK == 0 {
		cfg.TopK = selection.DefaultTopK
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeComposite
	}
	if cfg.Tiered == (portfolio.TieredConfig{}) {
		cfg.Tiered = portfolio.DefaultTieredConfig()
	}

	if cfg.Mode != ModeComposite && cfg.Mode != ModePE {
		return cfg, fmt.Errorf("unknown selection mode %q", cfg.Mode)
	}
	if err := contracts.ValidateNotional(cfg.Notional); err != nil {
		return cfg, err
	}
	if err := cfg.Tiered.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stage runs fn, records its PipelineResult and metrics, and wraps failures in StageError
func (o *Orchestrator) stage(result *RunResult, stage contracts.Stage, input int, fn func() (int, error)) error {
	start := time.Now()
	output, err := fn()
	duration := time.Since(start)

	pr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  input,
		OutputCount: output,
		Duration:    duration.Milliseconds(),
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)
	o.metrics.ObserveStage(stage, duration, err)

	if err != nil {
		o.logger.WithStage(string(stage)).WithError(err).Error("Stage failed")
		return contracts.NewStageError(stage, err)
	}

	result.CompletedStages = append(result.CompletedStages, fmt.Sprintf("%s:%s", stage.ShortName(), stage))
	return nil
}

func (o *Orchestrator) fail(result *RunResult, startTime time.Time, err error) (*RunResult, error) {
	result.Error = err.Error()
	result.DurationMS = time.Since(startTime).Milliseconds()
	o.metrics.ObserveRun(0, err)
	return result, err
}

func newResult(cfg RunConfig) *RunResult {
	return &RunResult{
		RunID:           cfg.RunID,
		Date:            cfg.Date,
		Mode:            cfg.Mode,
		ConfigHash:      cfg.ConfigHash,
		Notional:        cfg.Notional,
		CompletedStages: make([]string, 0),
		Stages:          make([]contracts.PipelineResult, 0, len(contracts.AllStages())),
	}
}

func (r *RunResult) addUnavailable(errs []*contracts.DataUnavailableError) {
	for _, e := range errs {
		reason := ""
		if e.Err != nil {
			reason = e.Err.Error()
		}
		r.Unavailable = append(r.Unavailable, UnavailableTicker{Ticker: e.Ticker, Field: e.Field, Reason: reason})
	}
}

// checkFinite rejects NaN/Inf scores before they reach any output
func checkFinite(u *contracts.Universe) error {
	for _, rec := range u.Records {
		score, ok := rec.Score()
		if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
			return &contracts.InvariantError{Stage: contracts.StageComposite, Ticker: rec.Ticker, Detail: "non-finite composite score"}
		}
	}
	return nil
}
