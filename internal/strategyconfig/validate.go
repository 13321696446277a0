package strategyconfig

import (
	"fmt"
	"math"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// maxBatchSize mirrors the provider's per-call symbol limit
const maxBatchSize = 100

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if strings.TrimSpace(cfg.Meta.StrategyID) == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if cfg.Universe.BatchSize < 1 || cfg.Universe.BatchSize > maxBatchSize {
		return ValidationError{"universe.batch_size", fmt.Sprintf("must be in [1, %d]", maxBatchSize)}
	}

	// === Selection ===
	if cfg.Selection.TopK < 1 {
		return ValidationError{"selection.top_k", "must be >= 1"}
	}
	switch cfg.Selection.Mode {
	case ModeComposite, ModePE:
	default:
		return ValidationError{"selection.mode", fmt.Sprintf("must be %q or %q", ModeComposite, ModePE)}
	}

	// === Weighting ===
	t := cfg.Weighting.Tiered
	if t.TopCount < 1 {
		return ValidationError{"weighting.tiered.top_count", "must be >= 1"}
	}
	if math.IsNaN(t.TopWeight) || t.TopWeight <= 0 || t.TopWeight >= 1 {
		return ValidationError{"weighting.tiered.top_weight", "must be in (0, 1)"}
	}

	// === Schedule ===
	if cfg.Schedule.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Schedule.Cron); err != nil {
			return ValidationError{"schedule.cron", err.Error()}
		}
		if cfg.Schedule.Notional <= 0 || math.IsInf(cfg.Schedule.Notional, 0) {
			return ValidationError{"schedule.notional", "must be > 0 when cron is set"}
		}
	}

	// === Export ===
	if cfg.Export.Path != "" && !strings.HasSuffix(strings.ToLower(cfg.Export.Path), ".xlsx") {
		return ValidationError{"export.path", "must end with .xlsx"}
	}
	if len(cfg.Export.SheetName) > 31 {
		return ValidationError{"export.sheet_name", "must be at most 31 characters"}
	}

	return nil
}
