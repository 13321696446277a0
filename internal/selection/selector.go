package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// DefaultTopK is the number of names kept when none is configured
const DefaultTopK = 50

// Selector implements S5: ascending sort and Top K
// ⭐ SSOT: S5 선택 로직은 여기서만
type Selector struct {
	logger *logger.Logger
}

// NewSelector creates a new selector
func NewSelector(log *logger.Logger) *Selector {
	return &Selector{
		logger: log.WithStage(string(contracts.StageSelect)),
	}
}

// Select keeps the k records with the lowest composite score.
// Ties keep their input order. Rank is assigned 1..min(k, n).
func (s *Selector) Select(ctx context.Context, u *contracts.Universe, k int) (*contracts.Universe, error) {
	if k <= 0 {
		return nil, &contracts.InvariantError{Stage: contracts.StageSelect, Detail: fmt.Sprintf("top k must be positive, got %d", k)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*contracts.SecurityRecord, 0, u.Count())
	if u != nil {
		for _, rec := range u.Records {
			if _, ok := rec.Score(); !ok {
				return nil, &contracts.InvariantError{Stage: contracts.StageSelect, Ticker: rec.Ticker, Detail: "composite score not computed"}
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return *records[i].CompositeScore < *records[j].CompositeScore
	})

	selected := s.truncate(records, k)
	s.logger.WithFields(map[string]interface{}{
		"input":    len(records),
		"selected": len(selected),
		"top_k":    k,
	}).Info("Selection completed")

	return withRecords(u, selected), nil
}

// SelectByMetric is the single-metric screen: drop null or non-positive values
// (e.g. negative earnings), sort ascending by the metric, keep k.
func (s *Selector) SelectByMetric(ctx context.Context, u *contracts.Universe, metric contracts.Metric, k int) (*contracts.Universe, error) {
	if k <= 0 {
		return nil, &contracts.InvariantError{Stage: contracts.StageSelect, Detail: fmt.Sprintf("top k must be positive, got %d", k)}
	}
	if !contracts.IsValidMetric(string(metric)) {
		return nil, &contracts.InvariantError{Stage: contracts.StageSelect, Detail: fmt.Sprintf("unknown metric %q", metric)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*contracts.SecurityRecord, 0, u.Count())
	dropped := 0
	if u != nil {
		for _, rec := range u.Records {
			if v, ok := rec.MetricValue(metric); ok && v > 0 {
				records = append(records, rec)
				continue
			}
			dropped++
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		vi, _ := records[i].MetricValue(metric)
		vj, _ := records[j].MetricValue(metric)
		return vi < vj
	})

	selected := s.truncate(records, k)
	s.logger.WithFields(map[string]interface{}{
		"metric":   metric,
		"dropped":  dropped,
		"selected": len(selected),
		"top_k":    k,
	}).Info("Single-metric selection completed")

	return withRecords(u, selected), nil
}

func (s *Selector) truncate(records []*contracts.SecurityRecord, k int) []*contracts.SecurityRecord {
	if len(records) > k {
		records = records[:k]
	}
	for i, rec := range records {
		rec.Rank = i + 1
	}
	return records
}

func withRecords(u *contracts.Universe, records []*contracts.SecurityRecord) *contracts.Universe {
	if u == nil {
		return contracts.NewUniverse("", time.Time{}, records)
	}
	return u.WithRecords(records)
}
