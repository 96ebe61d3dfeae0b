package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/profile"
	"github.com/wonny/fundscope/pkg/database"
	"github.com/wonny/fundscope/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and backend connectivity",
	Long: `Print the effective configuration, analytics profile and
whether PostgreSQL and Redis are reachable.

Example:
  go run ./cmd/fundscope status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := initDeps(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	PrintDoubleSeparator(out)
	PrintKeyValue(out, "Env", cfg.Env)
	PrintKeyValue(out, "Port", cfg.Port)
	PrintKeyValue(out, "Storage", cfg.StorageBackend)
	PrintKeyValue(out, "Reload Schedule", cfg.ReloadSchedule)
	if cfg.DatasetURL != "" {
		PrintKeyValue(out, "Dataset URL", cfg.DatasetURL)
	}
	PrintKeyValue(out, "Cache TTL", cfg.CacheTTL)
	PrintKeyValue(out, "Rate Limit", cfg.RateLimitRPS)
	PrintSeparator(out)

	// Profile
	p, err := profile.LoadOrDefault(cfg.ProfilePath)
	if err != nil {
		PrintError(out, "Profile: "+err.Error())
		return err
	}
	PrintKeyValue(out, "Profile", p.Meta.ProfileID+" "+p.Meta.Version)
	if hash, err := profile.Hash(p); err == nil {
		PrintKeyValue(out, "Profile Hash", hash)
	}
	if err := profile.Validate(p); err != nil {
		PrintError(out, "Profile invalid: "+err.Error())
	}
	for _, w := range profile.Warn(p) {
		PrintWarning(out, w.Code+": "+w.Message)
	}
	PrintSeparator(out)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	// PostgreSQL
	if cfg.Database.URL == "" {
		PrintInfo(out, "PostgreSQL: not configured")
	} else if db, err := database.New(ctx, cfg); err != nil {
		PrintError(out, "PostgreSQL: "+err.Error())
	} else {
		status, err := db.HealthCheck(ctx)
		if err != nil {
			PrintError(out, "PostgreSQL: "+err.Error())
		} else {
			PrintSuccess(out, "PostgreSQL: ok ("+status.ResponseTime.String()+")")
		}
		db.Close()
	}

	// Redis
	if !cfg.Redis.Enabled {
		PrintInfo(out, "Redis: disabled")
	} else if rc, err := redis.New(ctx, cfg); err != nil {
		PrintError(out, "Redis: "+err.Error())
	} else {
		PrintSuccess(out, "Redis: ok")
		_ = rc.Close()
	}

	log.Debug("Status check complete")
	return nil
}
