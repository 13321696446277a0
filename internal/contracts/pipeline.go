package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 에러, 메트릭에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
//   Fetch  Universe  Normalize  Percentile  Composite  Select  Size  Simulate

// Stage represents a pipeline stage
type Stage string

const (
	// StageFetch S0: 외부 데이터 수집
	// 책임: 티커 배치 조회, 캐시, 종목별 DataUnavailable 처리
	// 위치: internal/s0_data/
	StageFetch Stage = "S0_FETCH"

	// StageUniverse S1: 유니버스 스냅샷 생성
	// 책임: 원시 데이터 → SecurityRecord, 파생 비율 (EV/EBITDA, EV/GP)
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageNormalize S2: 결측치 평균 대체
	// 위치: internal/s2_signals/normalizer.go
	StageNormalize Stage = "S2_NORMALIZE"

	// StagePercentile S3: 지표별 백분위
	// 위치: internal/s2_signals/percentile.go
	StagePercentile Stage = "S3_PERCENTILE"

	// StageComposite S4: 종합 점수 (백분위 평균)
	// 위치: internal/s2_signals/scorer.go
	StageComposite Stage = "S4_COMPOSITE"

	// StageSelect S5: 오름차순 정렬 및 Top K
	// 위치: internal/selection/
	StageSelect Stage = "S5_SELECT"

	// StageSize S6: 동일 비중 수량 계산
	// 위치: internal/portfolio/
	StageSize Stage = "S6_SIZE"

	// StageSimulate S7: 기간별 가상 수익률 (동일 비중 / 80-20)
	// 위치: internal/backtest/
	StageSimulate Stage = "S7_SIMULATE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageFetch:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageNormalize:
		return "S2"
	case StagePercentile:
		return "S3"
	case StageComposite:
		return "S4"
	case StageSelect:
		return "S5"
	case StageSize:
		return "S6"
	case StageSimulate:
		return "S7"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageFetch:
		return "데이터 수집"
	case StageUniverse:
		return "유니버스 스냅샷"
	case StageNormalize:
		return "결측치 대체"
	case StagePercentile:
		return "지표별 백분위"
	case StageComposite:
		return "종합 점수"
	case StageSelect:
		return "상위 종목 선별"
	case StageSize:
		return "수량 계산"
	case StageSimulate:
		return "수익률 시뮬레이션"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageFetch,
		StageUniverse,
		StageNormalize,
		StagePercentile,
		StageComposite,
		StageSelect,
		StageSize,
		StageSimulate,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
