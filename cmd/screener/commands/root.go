package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Quantitative value screener",
	Long: `Quantitative Value Screener CLI

5개 밸류 지표(P/E, P/B, P/S, EV/EBITDA, EV/GP)의 백분위 평균으로
종목을 순위화하고, 포트폴리오 매수 수량과 가중치별 수익률을 계산합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen --portfolio 1000000
  go run ./cmd/screener screen --tickers AAPL,MSFT,XOM --top 2
  go run ./cmd/screener api
  go run ./cmd/screener scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
