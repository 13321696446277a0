package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/cache"
	"github.com/wonny/valuescreen/internal/external/iex"
	"github.com/wonny/valuescreen/internal/metrics"
	"github.com/wonny/valuescreen/internal/report"
	"github.com/wonny/valuescreen/internal/s0_data/collector"
	"github.com/wonny/valuescreen/internal/s1_universe"
	"github.com/wonny/valuescreen/internal/strategyconfig"
	"github.com/wonny/valuescreen/pkg/config"
	"github.com/wonny/valuescreen/pkg/httputil"
	"github.com/wonny/valuescreen/pkg/logger"
	"github.com/wonny/valuescreen/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	memory   *cache.MemoryCache // nil when redis is enabled
	metrics  *metrics.Registry
	strategy *strategyconfig.Config
	service  *brain.Service
	xlsx     *report.XLSXWriter
}

// strategyOverride adjusts the loaded strategy before the service hashes it
type strategyOverride func(s *strategyconfig.Config)

// newApp wires config → logger → http → redis → provider → collector → orchestrator → service.
// Logs go to logOut so stdout stays free for reports.
func newApp(logOut io.Writer, overrides ...strategyOverride) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.NewWithWriter(cfg, logOut)

	// 3. Load strategy
	path := cfg.StrategyFile
	if strategyFile != "" {
		path = strategyFile
	}
	strategy, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, apply := range overrides {
		apply(strategy)
	}
	if err := strategyconfig.Validate(strategy); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	// 4. Connect to redis (no-op when disabled)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create HTTP client and provider
	httpClient := httputil.New(cfg, log)
	provider := iex.NewClient(httpClient, cfg.IEX, log)

	// 6. Create collector (redis, or in-memory fallback)
	var fetchCache collector.Cache
	var store brain.ResultStore
	var memory *cache.MemoryCache
	if rdb.Enabled() {
		rc := redis.NewCache(rdb, "valuescreen")
		fetchCache, store = rc, rc
	} else {
		memory = cache.NewMemoryCache(log)
		fetchCache, store = memory, memory
	}
	col := collector.NewCollector(provider, fetchCache, collector.Config{
		BatchSize: min(cfg.IEX.BatchSize, strategy.Universe.BatchSize),
		Workers:   cfg.IEX.Concurrency,
		CacheTTL:  cfg.Redis.CacheTTL,
	}, log)

	// 7. Create orchestrator and service
	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.New()
	}
	orchestrator := brain.New(col, reg, log)
	loader := s1_universe.NewLoader(httpClient, log)

	service, err := brain.NewService(orchestrator, loader, strategy, store, log)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": strategy.Meta.StrategyID,
		"mode":        strategy.Selection.Mode,
		"top_k":       strategy.Selection.TopK,
		"redis":       rdb.Enabled(),
	}).Debug("Application wired")

	return &app{
		cfg:      cfg,
		log:      log,
		redis:    rdb,
		memory:   memory,
		metrics:  reg,
		strategy: strategy,
		service:  service,
		xlsx:     report.NewXLSXWriter(strategy.Export.SheetName, log),
	}, nil
}

// Close releases external connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// stderr is the default log destination for CLI commands
var stderr io.Writer = os.Stderr
