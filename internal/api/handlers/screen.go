package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/internal/portfolio"
	"github.com/wonny/valuescreen/internal/report"
	"github.com/wonny/valuescreen/internal/s1_universe"
	"github.com/wonny/valuescreen/pkg/logger"
)

// ScreenRunner runs screens and serves the latest result (brain.Service)
type ScreenRunner interface {
	Screen(ctx context.Context, notional float64) (*brain.RunResult, error)
	ScreenTickers(ctx context.Context, tickers []string, notional float64) (*brain.RunResult, error)
	Latest(ctx context.Context) (*brain.RunResult, bool, error)
}

// ScreenHandler handles screening API endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	runner    ScreenRunner
	sheetName string
	logger    *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(runner ScreenRunner, sheetName string, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		runner:    runner,
		sheetName: sheetName,
		logger:    log,
	}
}

// Screen runs a new screen
// GET /api/screen?portfolio=1000000[&tickers=AAPL,MSFT]
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	notional, err := portfolio.ParseNotional(query.Get("portfolio"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result *brain.RunResult
	if raw := query.Get("tickers"); raw != "" {
		result, err = h.runner.ScreenTickers(ctx, s1_universe.ParseList(raw), notional)
	} else {
		result, err = h.runner.Screen(ctx, notional)
	}
	if err != nil {
		status := StatusFor(err)
		h.logger.WithError(err).WithField("status", status).Warn("Screen request failed")
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Latest returns the most recent successful screen
// GET /api/screen/latest[?format=xlsx]
func (h *ScreenHandler) Latest(w http.ResponseWriter, r *http.Request) {
	result, found, err := h.runner.Latest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest screen")
		respondError(w, http.StatusInternalServerError, "failed to load latest screen")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "no screen has been run yet")
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		h.writeWorkbook(w, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ScreenHandler) writeWorkbook(w http.ResponseWriter, result *brain.RunResult) {
	// 헤더 전송 전에 버퍼에 먼저 생성
	var buf bytes.Buffer
	writer := report.NewXLSXWriter(h.sheetName, h.logger)
	if err := writer.Write(&buf, result.Selected, result.Returns); err != nil {
		h.logger.WithError(err).Error("Failed to write workbook")
		respondError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "value_strategy_"+result.Date.Format("20060102")+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithError(err).Warn("Failed to send workbook")
	}
}

// StatusFor maps pipeline errors to HTTP status codes
func StatusFor(err error) int {
	var (
		portfolioErr *contracts.InvalidPortfolioSizeError
		insufficient *contracts.InsufficientDataError
		empty        *contracts.EmptyUniverseError
		provider     *contracts.ProviderUnavailableError
	)
	switch {
	case errors.As(err, &portfolioErr):
		return http.StatusBadRequest
	case errors.As(err, &insufficient), errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	case errors.As(err, &provider):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
