package s1_universe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Builder turns raw provider payloads into the pipeline universe
type Builder struct {
	logger *logger.Logger
}

// NewBuilder creates a new Universe Builder
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{
		logger: log.WithStage(string(contracts.StageUniverse)),
	}
}

var (
	errNoPrice       = errors.New("missing price")
	errNonPositive   = errors.New("price must be positive")
	errMissingReturn = errors.New("missing price return")
)

// Build constructs the universe in one pass over the fetched records
// ⭐ SSOT: S0 → S1 유니버스 생성 (행 단위 append 없이 한 번에 조립)
//
// Tickers without a positive price or with a missing horizon return are
// skipped and reported as DataUnavailableError. Duplicates keep the first record.
func (b *Builder) Build(ctx context.Context, runID string, date time.Time, raws []*contracts.RawFundamentals) (*contracts.Universe, []*contracts.DataUnavailableError, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	records := make([]*contracts.SecurityRecord, 0, len(raws))
	skipped := make([]*contracts.DataUnavailableError, 0)
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		if raw == nil {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}

		rec, unavailable := toRecord(ticker, raw)
		if unavailable != nil {
			b.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"field":  unavailable.Field,
			}).Warn("Skipping ticker")
			skipped = append(skipped, unavailable)
			continue
		}
		records = append(records, rec)
	}

	b.logger.WithFields(map[string]interface{}{
		"input":   len(raws),
		"records": len(records),
		"skipped": len(skipped),
	}).Info("Universe built")

	return contracts.NewUniverse(runID, date, records), skipped, nil
}

func toRecord(ticker string, raw *contracts.RawFundamentals) (*contracts.SecurityRecord, *contracts.DataUnavailableError) {
	if raw.LatestPrice == nil {
		return nil, &contracts.DataUnavailableError{Ticker: ticker, Field: "latestPrice", Err: errNoPrice}
	}
	if !(*raw.LatestPrice > 0) {
		return nil, &contracts.DataUnavailableError{Ticker: ticker, Field: "latestPrice", Err: errNonPositive}
	}

	rec := contracts.NewSecurityRecord(ticker, *raw.LatestPrice)

	returns := []struct {
		horizon contracts.Horizon
		field   string
		value   *float64
	}{
		{contracts.Horizon1M, "month1ChangePercent", raw.Month1Change},
		{contracts.Horizon3M, "month3ChangePercent", raw.Month3Change},
		{contracts.Horizon6M, "month6ChangePercent", raw.Month6Change},
		{contracts.Horizon1Y, "year1ChangePercent", raw.Year1Change},
	}
	for _, r := range returns {
		if r.value == nil {
			return nil, &contracts.DataUnavailableError{Ticker: ticker, Field: r.field, Err: errMissingReturn}
		}
		rec.PriceReturns[r.horizon] = *r.value
	}

	rec.SetMetric(contracts.MetricPE, raw.PERatio)
	rec.SetMetric(contracts.MetricPB, raw.PriceToBook)
	rec.SetMetric(contracts.MetricPS, raw.PriceToSales)
	rec.SetMetric(contracts.MetricEVEBITDA, ratio(raw.EnterpriseValue, raw.EBITDA))
	rec.SetMetric(contracts.MetricEVGP, ratio(raw.EnterpriseValue, raw.GrossProfit))

	return rec, nil
}

// ratio returns num/den, nil when either side is missing or den is zero
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den
	return &v
}
