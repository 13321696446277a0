package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// DataUnavailableError reports a per-ticker fetch failure or missing field.
// Never fatal: the ticker is skipped or the metric becomes null.
type DataUnavailableError struct {
	Ticker string
	Field  string // empty when the whole ticker is missing
	Err    error
}

func (e *DataUnavailableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "data unavailable for %s", e.Ticker)
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports a metric column that is null universe-wide.
// Fatal for the run.
type InsufficientDataError struct {
	Metric Metric
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: metric %s is null for every security", e.Metric)
}

// InvalidPortfolioSizeError reports a non-numeric or non-positive notional
type InvalidPortfolioSizeError struct {
	Input  string
	Reason string
}

func (e *InvalidPortfolioSizeError) Error() string {
	return fmt.Sprintf("invalid portfolio size %q: %s", e.Input, e.Reason)
}

// ProviderUnavailableError reports that every provider batch failed and nothing
// was served from cache. Transient: the same inputs may succeed later.
type ProviderUnavailableError struct {
	Batches int
	Err     error // errors.Join of the batch errors
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable: all %d batches failed: %v", e.Batches, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}

// EmptyUniverseError reports a stage that received zero records
type EmptyUniverseError struct {
	Stage Stage
}

func (e *EmptyUniverseError) Error() string {
	return fmt.Sprintf("empty universe at %s", e.Stage)
}

// InvariantError is a programming error (e.g. scoring before ranking).
// It is never recovered.
type InvariantError struct {
	Stage  Stage
	Ticker string
	Detail string
}

func (e *InvariantError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("invariant violated at %s (%s): %s", e.Stage, e.Ticker, e.Detail)
	}
	return fmt.Sprintf("invariant violated at %s: %s", e.Stage, e.Detail)
}

// StageError wraps any failure with the stage that produced it.
// Ticker and Metric are set when the wrapped error names them.
type StageError struct {
	Stage  Stage
	Ticker string
	Metric Metric
	Err    error
}

// NewStageError wraps err and lifts the ticker/metric out of known domain errors
func NewStageError(stage Stage, err error) *StageError {
	e := &StageError{Stage: stage, Err: err}

	var insufficient *InsufficientDataError
	var invariant *InvariantError
	var unavailable *DataUnavailableError
	switch {
	case errors.As(err, &insufficient):
		e.Metric = insufficient.Metric
	case errors.As(err, &invariant):
		e.Ticker = invariant.Ticker
	case errors.As(err, &unavailable):
		e.Ticker = unavailable.Ticker
	}
	return e
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) failed", e.Stage.ShortName(), e.Stage)
	if e.Ticker != "" {
		fmt.Fprintf(&b, " [ticker=%s]", e.Ticker)
	}
	if e.Metric != "" {
		fmt.Fprintf(&b, " [metric=%s]", e.Metric)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
