package contracts

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStageError_UnwrapsDomainErrors(t *testing.T) {
	inner := &InsufficientDataError{Metric: MetricEVGP}
	err := fmt.Errorf("run: %w", &StageError{Stage: StageNormalize, Err: inner})

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatal("expected InsufficientDataError through StageError")
	}
	if insufficient.Metric != MetricEVGP {
		t.Errorf("Metric = %s, want %s", insufficient.Metric, MetricEVGP)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageNormalize {
		t.Error("expected StageError for S2_NORMALIZE")
	}

	if !strings.Contains(err.Error(), "S2") || !strings.Contains(err.Error(), "ev_gp") {
		t.Errorf("message should name stage and metric: %s", err)
	}
}

func TestDataUnavailableError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *DataUnavailableError
		want string
	}{
		{"ticker only", &DataUnavailableError{Ticker: "XYZ"}, "data unavailable for XYZ"},
		{"with field", &DataUnavailableError{Ticker: "XYZ", Field: "latestPrice"}, "data unavailable for XYZ (latestPrice)"},
		{"with cause", &DataUnavailableError{Ticker: "XYZ", Err: errors.New("timeout")}, "data unavailable for XYZ: timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvariantError_Message(t *testing.T) {
	err := &InvariantError{Stage: StageComposite, Ticker: "IBM", Detail: "percentile missing"}
	if !strings.Contains(err.Error(), "IBM") {
		t.Errorf("expected ticker in message: %s", err)
	}
}

func TestNewStageError_LiftsContext(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantTicker string
		wantMetric Metric
	}{
		{"insufficient data", &InsufficientDataError{Metric: MetricPB}, "", MetricPB},
		{"invariant", fmt.Errorf("score: %w", &InvariantError{Stage: StageComposite, Ticker: "IBM"}), "IBM", ""},
		{"unavailable", &DataUnavailableError{Ticker: "XOM"}, "XOM", ""},
		{"plain", errors.New("boom"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := NewStageError(StageComposite, tt.err)
			if se.Ticker != tt.wantTicker || se.Metric != tt.wantMetric {
				t.Errorf("got ticker=%q metric=%q, want %q %q", se.Ticker, se.Metric, tt.wantTicker, tt.wantMetric)
			}
			if !errors.Is(se, tt.err) {
				t.Error("StageError must unwrap to the original error")
			}
		})
	}
}
