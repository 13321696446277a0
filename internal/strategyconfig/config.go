package strategyconfig

import "time"

// Config는 가치주 스크리닝 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Selection Selection `yaml:"selection" json:"selection"`
	Weighting Weighting `yaml:"weighting" json:"weighting"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
	Export    Export    `yaml:"export" json:"export"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe S1: 스크리닝 대상 종목 목록
type Universe struct {
	Source    string `yaml:"source" json:"source"`         // CSV/HTML/TXT 파일 경로 또는 URL
	BatchSize int    `yaml:"batch_size" json:"batch_size"` // provider 배치 크기 (≤100)
}

// Selection S5: 상위 K 선택
type Selection struct {
	TopK int    `yaml:"top_k" json:"top_k"`
	Mode string `yaml:"mode" json:"mode"` // composite | pe
}

// Selection modes
const (
	ModeComposite = "composite"
	ModePE        = "pe"
)

// Weighting S6: 비중 방식
type Weighting struct {
	Tiered Tiered `yaml:"tiered" json:"tiered"`
}

// Tiered 상위 N종목에 TopWeight 집중
type Tiered struct {
	TopCount  int     `yaml:"top_count" json:"top_count"`
	TopWeight float64 `yaml:"top_weight" json:"top_weight"`
}

// Schedule 정기 실행 설정
type Schedule struct {
	Cron     string  `yaml:"cron" json:"cron"`         // robfig/cron (seconds 포함)
	Notional float64 `yaml:"notional" json:"notional"` // 정기 실행 시 포트폴리오 금액
}

// Export 스프레드시트 출력
type Export struct {
	SheetName string `yaml:"sheet_name" json:"sheet_name"`
	Path      string `yaml:"path" json:"path"`
}

// Default returns the built-in strategy (top 50, 10 names carry 80%)
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "value_v1",
			Version:    "1.0.0",
		},
		Universe: Universe{
			Source:    "data/sp500.csv",
			BatchSize: 100,
		},
		Selection: Selection{
			TopK: 50,
			Mode: ModeComposite,
		},
		Weighting: Weighting{
			Tiered: Tiered{
				TopCount:  10,
				TopWeight: 0.8,
			},
		},
		Schedule: Schedule{
			Cron:     "0 30 6 * * 1-5",
			Notional: 1_000_000,
		},
		Export: Export{
			SheetName: "Value Strategy",
			Path:      "value_strategy.xlsx",
		},
	}
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	StrategyID string    `json:"strategy_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
