package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/valuescreen/internal/api/handlers"
	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/metrics"
	"github.com/wonny/valuescreen/pkg/logger"
)

type emptyRunner struct{}

func (emptyRunner) Screen(ctx context.Context, notional float64) (*brain.RunResult, error) {
	panic("unexpected")
}

func (emptyRunner) ScreenTickers(ctx context.Context, tickers []string, notional float64) (*brain.RunResult, error) {
	panic("unexpected")
}

func (emptyRunner) Latest(ctx context.Context) (*brain.RunResult, bool, error) {
	return nil, false, nil
}

func TestRouter(t *testing.T) {
	log := logger.Nop()
	router := NewRouter(handlers.NewScreenHandler(emptyRunner{}, "", log), metrics.New().Handler(), log)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/screen/latest", http.StatusNotFound},
		{"GET", "/api/screen?portfolio=abc", http.StatusBadRequest},
		{"POST", "/api/screen", http.StatusMethodNotAllowed},
		{"GET", "/api/screen?portfolio=100", http.StatusInternalServerError}, // panic recovered
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
