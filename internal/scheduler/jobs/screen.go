package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/internal/scheduler"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Screener runs the configured strategy (brain.Service)
type Screener interface {
	Screen(ctx context.Context, notional float64) (*brain.RunResult, error)
}

// Exporter writes the selected portfolio to disk (report.XLSXWriter)
type Exporter interface {
	Save(path string, selected *contracts.Universe, returns *contracts.ReturnComparison) error
}

// ScreenJob runs the value screen on the strategy schedule
// ⭐ SSOT: 정기 스크리닝은 이 Job에서만
type ScreenJob struct {
	screener Screener
	exporter Exporter
	schedule string
	notional float64
	path     string
	logger   *logger.Logger
}

// NewScreenJob creates a new screen job. exporter may be nil.
func NewScreenJob(screener Screener, exporter Exporter, schedule string, notional float64, path string, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		screener: screener,
		exporter: exporter,
		schedule: schedule,
		notional: notional,
		path:     path,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "value_screen"
}

// Schedule returns the cron schedule (with seconds)
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run executes the screen and exports the result
func (j *ScreenJob) Run(ctx context.Context) error {
	j.logger.WithField("notional", j.notional).Info("Starting scheduled screen")

	result, err := j.screener.Screen(ctx, j.notional)
	if err != nil {
		if isPermanent(err) {
			return scheduler.Permanent(err)
		}
		return fmt.Errorf("screen failed: %w", err)
	}

	if j.exporter != nil && j.path != "" {
		if err := j.exporter.Save(j.path, result.Selected, result.Returns); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"selected": result.Selected.Count(),
		"path":     j.path,
	}).Info("Scheduled screen completed")

	return nil
}

// isPermanent reports errors that the same inputs will reproduce
func isPermanent(err error) bool {
	var sizeErr *contracts.InvalidPortfolioSizeError
	var dataErr *contracts.InsufficientDataError
	var emptyErr *contracts.EmptyUniverseError
	var invErr *contracts.InvariantError
	return errors.As(err, &sizeErr) ||
		errors.As(err, &dataErr) ||
		errors.As(err, &emptyErr) ||
		errors.As(err, &invErr)
}
