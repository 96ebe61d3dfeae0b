package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/profile"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

var (
	analyzeFunds  []int64
	analyzeStart  string
	analyzeEnd    string
	analyzeRf     float64
	analyzeWindow int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv|file.xlsx|url>",
	Short: "Print full fund reports for a CSV dataset",
	Long: `Parse a monthly-return CSV or XLSX export and print one JSON report per fund.

--fund 를 생략하면 모든 펀드를 분석합니다.
--rf, --window 를 생략하면 분석 프로파일 기본값을 사용합니다.

Example:
  go run ./cmd/fundscope analyze funds.csv
  go run ./cmd/fundscope analyze funds.csv --fund 1,3 --start 2020-01-01 --rf 4.5`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Int64SliceVar(&analyzeFunds, "fund", nil, "fund ids to analyze (default: all)")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "period start (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "period end (YYYY-MM-DD)")
	analyzeCmd.Flags().Float64Var(&analyzeRf, "rf", 0, "annual risk-free rate in percent")
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "rolling window in months")
}

// analyzeOptions are the per-run report parameters
type analyzeOptions struct {
	FundIDs []int64
	Request metrics.ReportRequest
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := initDeps(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	p, _, err := loadProfile(cfg, log)
	if err != nil {
		return err
	}

	r, err := contracts.ParseDateRange(analyzeStart, analyzeEnd)
	if err != nil {
		return err
	}
	opts := analyzeOptions{
		FundIDs: analyzeFunds,
		Request: metrics.ReportRequest{Range: r},
	}
	// 플래그 지정 여부로 판단 (rf 0%는 유효, window 0은 거부 대상)
	if cmd.Flags().Changed("rf") {
		rf := analyzeRf
		opts.Request.RiskFreeRate = &rf
	}
	if cmd.Flags().Changed("window") {
		window := analyzeWindow
		opts.Request.RollingWindowMonths = &window
	}

	ds, report, err := parseSource(cmd.Context(), args[0], cfg.MaxUploadBytes, log)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"funds":        report.Funds,
		"observations": report.Observations,
		"skipped_rows": report.SkippedRows,
	}).Debug("Dataset parsed")

	return analyze(cmd.Context(), ds, p, opts, cmd.OutOrStdout(), log)
}

// analyze loads ds into a fresh store and writes the reports as a JSON array
func analyze(ctx context.Context, ds *store.Dataset, p *profile.Profile, opts analyzeOptions, w io.Writer, log *logger.Logger) error {
	mem := store.NewMemoryStore()
	if _, err := mem.Replace(ds); err != nil {
		return err
	}
	svc := metrics.NewService(mem, p, log)

	ids := opts.FundIDs
	if len(ids) == 0 {
		for _, f := range ds.Funds {
			ids = append(ids, f.ID)
		}
	}

	reports := make([]*metrics.FundReport, 0, len(ids))
	for _, id := range ids {
		rep, err := svc.Report(ctx, id, opts.Request)
		if err != nil {
			return fmt.Errorf("fund %d: %w", id, err)
		}
		reports = append(reports, rep)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
