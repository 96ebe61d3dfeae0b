package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundscope",
	Short: "fundscope - 펀드 월수익률 분석 엔진",
	Long: `fundscope Unified CLI

월별 수익률 CSV/XLSX를 읽어 기간 수익률, 위험지표, drawdown, 상관계수를 계산합니다.

Usage:
  go run ./cmd/fundscope [command]

Examples:
  go run ./cmd/fundscope api
  go run ./cmd/fundscope analyze funds.csv --fund 1
  go run ./cmd/fundscope load funds.csv
  go run ./cmd/fundscope status`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "analytics profile YAML (default: ANALYTICS_PROFILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
