package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/api"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/scheduler"
	"github.com/wonny/fundscope/internal/scheduler/jobs"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/database"
	"github.com/wonny/fundscope/pkg/httputil"
	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

var apiPort string

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the analytics API server",
	Long: `Start the fundscope HTTP API server.

STORAGE_BACKEND=postgres 이면 시작 시 저장된 데이터셋을 로드하고
RELOAD_SCHEDULE 주기로 새 버전을 다시 읽습니다.
DATASET_URL 이 설정되면 원격 CSV를 주기적으로 내려받습니다.

Example:
  go run ./cmd/fundscope api
  go run ./cmd/fundscope api --port 9090`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (overrides PORT)")
}

// markingPersister saves to Postgres and tells the reload job the version is already in memory
type markingPersister struct {
	pg     *store.PostgresStore
	reload *jobs.DatasetReloadJob
}

func (p markingPersister) SaveDataset(ctx context.Context, ds *store.Dataset) (*store.Version, error) {
	v, err := p.pg.SaveDataset(ctx, ds)
	if err != nil {
		return nil, err
	}
	p.reload.MarkLoaded(v.DatasetID)
	return v, nil
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, log, err := initDeps(os.Stdout)
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.Info("Starting fundscope API Server")
	log.WithFields(map[string]interface{}{
		"env":     cfg.Env,
		"port":    cfg.Port,
		"storage": cfg.StorageBackend,
	}).Info("Configuration loaded")

	p, profileHash, err := loadProfile(cfg, log)
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"profile_id": p.Meta.ProfileID,
		"version":    p.Meta.Version,
		"hash":       profileHash,
	}).Info("Analytics profile loaded")

	ctx := context.Background()
	mem := store.NewMemoryStore()
	sched := scheduler.New(log)
	checks := map[string]jobs.HealthCheck{}

	// Storage (postgres 선택)
	var persister jobs.Persister
	if cfg.UsesPostgres() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		log.Info("Database connected")

		pg := store.NewPostgresStore(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		reload := jobs.NewDatasetReloadJob(pg, mem, cfg.ReloadSchedule, log)
		if err := reload.Run(ctx); err != nil {
			return fmt.Errorf("initial dataset load: %w", err)
		}
		if err := sched.AddJob(reload); err != nil {
			return err
		}

		persister = markingPersister{pg: pg, reload: reload}
		checks["postgres"] = func(ctx context.Context) error {
			_, err := db.HealthCheck(ctx)
			return err
		}
	}

	// Redis (선택): 응답 캐시 + 분산 rate limit
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rc.Close()
	if rc.Enabled() {
		log.Info("Redis connected")
		checks["redis"] = rc.Ping
	}

	// Remote dataset (선택)
	if cfg.DatasetURL != "" {
		remote := jobs.NewRemoteDatasetJob(httputil.New(log), cfg.DatasetURL, cfg.MaxUploadBytes, mem, persister, cfg.ReloadSchedule, log)
		if err := sched.AddJob(remote); err != nil {
			return err
		}
		if err := sched.RunJob(remote.Name()); err != nil {
			log.WithError(err).Warn("Failed to trigger initial remote download")
		}
	}

	if len(checks) > 0 {
		if err := sched.AddJob(jobs.NewHealthJob(checks, log)); err != nil {
			return err
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Store:          mem,
		Service:        metrics.NewService(mem, p, log),
		Persister:      persister,
		Cache:          redis.NewCache(rc, "fundscope"),
		Limiter:        redis.NewRateLimiter(rc, "fundscope"),
		ProfileHash:    profileHash,
		CacheTTL:       cfg.CacheTTL,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         log,
	})

	server := api.New(cfg, log, router)

	sched.Start()
	defer sched.Stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Shutting down server...")
	return shutdown(server, log)
}

func shutdown(server *api.Server, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}
