package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/database"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <file.csv|file.xlsx|url>",
	Short: "Persist a CSV dataset to PostgreSQL",
	Long: `Parse a monthly-return CSV or XLSX export and save it as the current dataset version.

실행 중인 API 서버는 다음 reload 주기에 새 버전을 읽습니다.
DATABASE_URL 이 필요합니다.

Example:
  go run ./cmd/fundscope load funds.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, log, err := initDeps(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for load")
	}

	ctx := cmd.Context()
	ds, report, err := parseSource(ctx, args[0], cfg.MaxUploadBytes, log)
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	pg := store.NewPostgresStore(db.Pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	v, err := pg.SaveDataset(ctx, ds)
	if err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}

	out := cmd.OutOrStdout()
	PrintSuccess(out, "Dataset saved")
	PrintKeyValue(out, "Dataset ID", v.DatasetID)
	PrintKeyValue(out, "Source", v.Source)
	PrintKeyValue(out, "Saved At", v.SavedAt.Format("2006-01-02 15:04:05"))
	PrintKeyValue(out, "Funds", report.Funds)
	PrintKeyValue(out, "Observations", report.Observations)
	PrintKeyValue(out, "Skipped Rows", report.SkippedRows)
	return nil
}
