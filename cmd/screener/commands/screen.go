package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/portfolio"
	"github.com/wonny/valuescreen/internal/s1_universe"
	"github.com/wonny/valuescreen/internal/strategyconfig"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "밸류 스크리닝 실행",
	Long: `티커 유니버스를 스크리닝하고 매수 수량을 계산합니다.

S0 수집 → S1 유니버스 → S2 정규화 → S3 백분위 → S4 종합점수
→ S5 선별 → S6 수량 계산 → S7 수익률 비교

--portfolio를 생략하면 포트폴리오 금액을 입력받습니다.

Example:
  go run ./cmd/screener screen --portfolio 1000000
  go run ./cmd/screener screen --source data/sp500.csv --top 50 --output value.xlsx
  go run ./cmd/screener screen --tickers AAPL,MSFT,XOM --mode pe --top 2`,
	RunE: runScreen,
}

var (
	screenTickers   []string
	screenSource    string
	screenPortfolio string
	screenTop       int
	screenMode      string
	screenOutput    string
	screenSheet     string
	screenTopCount  int
	screenTopWeight float64
	screenTimeout   time.Duration
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().StringSliceVar(&screenTickers, "tickers", nil, "쉼표로 구분한 티커 (지정 시 --source 무시)")
	screenCmd.Flags().StringVar(&screenSource, "source", "", "티커 목록 CSV/HTML 경로 또는 URL")
	screenCmd.Flags().StringVarP(&screenPortfolio, "portfolio", "p", "", "포트폴리오 금액 (예: 1,000,000)")
	screenCmd.Flags().IntVar(&screenTop, "top", 0, "선별 종목 수 (default: strategy top_k)")
	screenCmd.Flags().StringVar(&screenMode, "mode", "", "composite | pe")
	screenCmd.Flags().StringVarP(&screenOutput, "output", "o", "", "xlsx 출력 경로")
	screenCmd.Flags().StringVar(&screenSheet, "sheet", "", "xlsx 시트 이름")
	screenCmd.Flags().IntVar(&screenTopCount, "top-count", 0, "tiered 가중치 상위 종목 수")
	screenCmd.Flags().Float64Var(&screenTopWeight, "top-weight", 0, "tiered 가중치 상위 비중 (0~1)")
	screenCmd.Flags().DurationVar(&screenTimeout, "timeout", 10*time.Minute, "전체 실행 제한 시간")
}

// screenOverrides maps CLI flags onto the strategy
func screenOverrides(cmd *cobra.Command) strategyOverride {
	return func(s *strategyconfig.Config) {
		if screenSource != "" {
			s.Universe.Source = screenSource
		}
		if cmd.Flags().Changed("top") {
			s.Selection.TopK = screenTop
		}
		if screenMode != "" {
			s.Selection.Mode = screenMode
		}
		if screenSheet != "" {
			s.Export.SheetName = screenSheet
		}
		if screenOutput != "" {
			s.Export.Path = screenOutput
		}
		if cmd.Flags().Changed("top-count") {
			s.Weighting.Tiered.TopCount = screenTopCount
		}
		if cmd.Flags().Changed("top-weight") {
			s.Weighting.Tiered.TopWeight = screenTopWeight
		}
	}
}

func runScreen(cmd *cobra.Command, args []string) error {
	// 1. Portfolio size (flag or prompt)
	var notional float64
	var err error
	if screenPortfolio != "" {
		notional, err = portfolio.ParseNotional(screenPortfolio)
	} else {
		notional, err = promptNotional(os.Stdin, cmd.OutOrStdout(), defaultPromptAttempts)
	}
	if err != nil {
		return err
	}

	// 2. Wire dependencies
	a, err := newApp(stderr, screenOverrides(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, screenTimeout)
	defer cancel()

	// 3. Run pipeline
	var result *brain.RunResult
	if len(screenTickers) > 0 {
		result, err = a.service.ScreenTickers(ctx, s1_universe.Normalize(screenTickers), notional)
	} else {
		result, err = a.service.Screen(ctx, notional)
	}
	if err != nil {
		if result != nil {
			printUnavailable(cmd.ErrOrStderr(), result.Unavailable)
		}
		return fmt.Errorf("screen failed: %w", err)
	}

	// 4. Report
	printReport(cmd.OutOrStdout(), result)

	path := a.strategy.Export.Path
	if path != "" {
		if err := a.xlsx.Save(path, result.Selected, result.Returns); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Saved %s\n", path)
	}
	return nil
}
