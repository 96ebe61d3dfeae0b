package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/wonny/fundscope/internal/ingest"
	"github.com/wonny/fundscope/internal/profile"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/config"
	"github.com/wonny/fundscope/pkg/httputil"
	"github.com/wonny/fundscope/pkg/logger"
)

// initDeps loads config and a logger writing to w
// 결과를 stdout으로 내보내는 명령은 stderr를 넘김
func initDeps(w io.Writer) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if profilePath != "" {
		cfg.ProfilePath = profilePath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.NewWithWriter(cfg, w), nil
}

// loadProfile reads and validates the analytics profile, returning its hash
func loadProfile(cfg *config.Config, log *logger.Logger) (*profile.Profile, string, error) {
	p, err := profile.LoadOrDefault(cfg.ProfilePath)
	if err != nil {
		return nil, "", fmt.Errorf("load profile: %w", err)
	}
	if err := profile.Validate(p); err != nil {
		return nil, "", fmt.Errorf("invalid profile: %w", err)
	}
	for _, w := range profile.Warn(p) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	hash, err := profile.Hash(p)
	if err != nil {
		return nil, "", fmt.Errorf("hash profile: %w", err)
	}
	return p, hash, nil
}

// parseSource reads a CSV file path or http(s) URL into a dataset
func parseSource(ctx context.Context, src string, maxBytes int64, log *logger.Logger) (*store.Dataset, *ingest.Report, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return ingest.ParseFile(src)
	}

	data, err := httputil.New(log).Download(ctx, src, maxBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", src, err)
	}
	return ingest.ParseNamed(bytes.NewReader(data), path.Base(src))
}
