package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/valuescreen/internal/contracts"
)

// Registry holds all screener metrics on a private prometheus registry.
// A nil *Registry is valid and records nothing.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	StageDuration  *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	Tickers        *prometheus.CounterVec
	CacheHits      prometheus.Counter
	LastRunRecords prometheus.Gauge
}

// New creates and registers all metrics
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuescreen_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage", "result"},
		),

		StageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuescreen_stage_errors_total",
				Help: "Total number of stage failures by error type",
			},
			[]string{"stage", "error_type"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuescreen_runs_total",
				Help: "Total number of screening runs by outcome",
			},
			[]string{"outcome"},
		),

		Tickers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuescreen_tickers_total",
				Help: "Tickers processed by fetch status",
			},
			[]string{"status"},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "valuescreen_cache_hits_total",
				Help: "Fundamentals served from cache",
			},
		),

		LastRunRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "valuescreen_last_run_selected",
				Help: "Number of selected securities in the last successful run",
			},
		),
	}

	r.reg.MustRegister(
		r.StageDuration,
		r.StageErrors,
		r.Runs,
		r.Tickers,
		r.CacheHits,
		r.LastRunRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveStage records a stage duration and, on failure, its error type
func (r *Registry) ObserveStage(stage contracts.Stage, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
		r.StageErrors.WithLabelValues(stage.ShortName(), ErrorType(err)).Inc()
	}
	r.StageDuration.WithLabelValues(stage.ShortName(), result).Observe(d.Seconds())
}

// ObserveFetch records fetched, unavailable and cached ticker counts
func (r *Registry) ObserveFetch(fetched, unavailable, cacheHits int) {
	if r == nil {
		return
	}
	r.Tickers.WithLabelValues("fetched").Add(float64(fetched))
	r.Tickers.WithLabelValues("unavailable").Add(float64(unavailable))
	r.CacheHits.Add(float64(cacheHits))
}

// ObserveRun records a run outcome
func (r *Registry) ObserveRun(selected int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.Runs.WithLabelValues("failure").Inc()
		return
	}
	r.Runs.WithLabelValues("success").Inc()
	r.LastRunRecords.Set(float64(selected))
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ErrorType maps an error to a low-cardinality label
func ErrorType(err error) string {
	var (
		unavailable  *contracts.DataUnavailableError
		insufficient *contracts.InsufficientDataError
		portfolio    *contracts.InvalidPortfolioSizeError
		empty        *contracts.EmptyUniverseError
		invariant    *contracts.InvariantError
	)
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_data"
	case errors.As(err, &portfolio):
		return "invalid_portfolio_size"
	case errors.As(err, &empty):
		return "empty_universe"
	case errors.As(err, &invariant):
		return "invariant"
	case errors.As(err, &unavailable):
		return "data_unavailable"
	default:
		return "other"
	}
}
