package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
	"github.com/wonny/valuescreen/pkg/redis"
)

// Cache is the subset of pkg/redis.Cache the collector needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Collector fetches raw fundamentals in provider-sized batches
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	provider contracts.FundamentalsProvider
	cache    Cache
	config   Config
	logger   *logger.Logger
}

// Config holds collector configuration
type Config struct {
	BatchSize int           // symbols per provider call (≤100)
	Workers   int           // Number of concurrent batch requests
	CacheTTL  time.Duration // 0 = redis.TTLFundamentals
}

// FetchReport is the S0 output
type FetchReport struct {
	Data        []*contracts.RawFundamentals // input ticker order, unavailable tickers omitted
	Unavailable []*contracts.DataUnavailableError
	Batches     int
	CacheHits   int
}

// NewCollector creates a new Collector instance. cache may be nil.
func NewCollector(provider contracts.FundamentalsProvider, cache Cache, cfg Config, log *logger.Logger) *Collector {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = redis.TTLFundamentals
	}
	return &Collector{
		provider: provider,
		cache:    cache,
		config:   cfg,
		logger:   log.WithField("module", "collector"),
	}
}

// batchResult is written by exactly one goroutine
type batchResult struct {
	data map[string]*contracts.RawFundamentals
	err  error
}

// Fetch retrieves fundamentals for every ticker.
// Per-ticker and per-batch provider failures become DataUnavailableError entries.
// Context cancellation is returned as an error, and so is a ProviderUnavailableError
// when every batch failed and the cache served nothing.
func (c *Collector) Fetch(ctx context.Context, tickers []string, date time.Time) (*FetchReport, error) {
	tickers = dedupe(tickers)
	dateKey := date.Format("2006-01-02")
	report := &FetchReport{
		Data:        make([]*contracts.RawFundamentals, 0, len(tickers)),
		Unavailable: make([]*contracts.DataUnavailableError, 0),
	}

	// 1. 캐시 조회
	found := make(map[string]*contracts.RawFundamentals, len(tickers))
	misses := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if raw, ok := c.fromCache(ctx, ticker, dateKey); ok {
			found[ticker] = raw
			report.CacheHits++
			continue
		}
		misses = append(misses, ticker)
	}

	batches := Chunks(misses, c.config.BatchSize)
	report.Batches = len(batches)

	c.logger.WithFields(map[string]interface{}{
		"tickers":    len(tickers),
		"cache_hits": report.CacheHits,
		"batches":    len(batches),
		"workers":    c.config.Workers,
	}).Info("Starting fundamentals collection")

	// 2. 배치 병렬 조회
	results := make([]batchResult, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			data, err := c.provider.FetchBatch(gctx, batch)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = batchResult{data: data, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}

	// 3. 전체 배치 실패 = provider 장애
	if err := allFailed(results, report.CacheHits); err != nil {
		c.logger.WithError(err).Error("Every batch request failed")
		return nil, fmt.Errorf("fetch fundamentals: %w", err)
	}

	// 4. 결과 병합
	for i, batch := range batches {
		res := results[i]
		if res.err != nil {
			c.logger.WithError(res.err).WithFields(map[string]interface{}{
				"batch": i,
				"size":  len(batch),
			}).Warn("Batch request failed, tickers marked unavailable")
		}
		for _, ticker := range batch {
			if res.err != nil {
				report.Unavailable = append(report.Unavailable, &contracts.DataUnavailableError{Ticker: ticker, Err: res.err})
				continue
			}
			raw, ok := res.data[ticker]
			if !ok || raw == nil {
				report.Unavailable = append(report.Unavailable, &contracts.DataUnavailableError{
					Ticker: ticker,
					Err:    errors.New("not returned by provider"),
				})
				continue
			}
			found[ticker] = raw
			c.toCache(ctx, ticker, dateKey, raw)
		}
	}

	for _, ticker := range tickers {
		if raw, ok := found[ticker]; ok {
			report.Data = append(report.Data, raw)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"fetched":     len(report.Data),
		"unavailable": len(report.Unavailable),
	}).Info("Fundamentals collection completed")

	return report, nil
}

// allFailed returns a ProviderUnavailableError when there was at least one
// batch, every batch errored and no ticker came from cache
func allFailed(results []batchResult, cached int) error {
	if len(results) == 0 || cached > 0 {
		return nil
	}
	errs := make([]error, 0, len(results))
	for _, res := range results {
		if res.err == nil {
			return nil
		}
		errs = append(errs, res.err)
	}
	return &contracts.ProviderUnavailableError{Batches: len(results), Err: errors.Join(errs...)}
}

func (c *Collector) fromCache(ctx context.Context, ticker, dateKey string) (*contracts.RawFundamentals, bool) {
	if c.cache == nil {
		return nil, false
	}
	var raw contracts.RawFundamentals
	ok, err := c.cache.Get(ctx, redis.FundamentalsKey(ticker, dateKey), &raw)
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Debug("Cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	raw.Ticker = ticker
	return &raw, true
}

func (c *Collector) toCache(ctx context.Context, ticker, dateKey string, raw *contracts.RawFundamentals) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, redis.FundamentalsKey(ticker, dateKey), raw, c.config.CacheTTL); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Debug("Cache write failed")
	}
}

// Chunks splits tickers into consecutive groups of at most size
func Chunks(tickers []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]string, 0, (len(tickers)+size-1)/size)
	for start := 0; start < len(tickers); start += size {
		end := start + size
		if end > len(tickers) {
			end = len(tickers)
		}
		chunks = append(chunks, tickers[start:end])
	}
	return chunks
}

// dedupe upper-cases, trims and removes duplicates, keeping first occurrence
func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
