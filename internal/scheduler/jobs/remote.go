package jobs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sync"

	"github.com/wonny/fundscope/internal/ingest"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// Downloader fetches a remote export
type Downloader interface {
	Download(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// Persister saves a dataset beyond process memory
type Persister interface {
	SaveDataset(ctx context.Context, ds *store.Dataset) (*store.Version, error)
}

// RemoteDatasetJob refreshes the dataset from a CSV export URL
type RemoteDatasetJob struct {
	client    Downloader
	url       string
	maxBytes  int64
	store     *store.MemoryStore
	persister Persister // nil = 메모리만 교체
	schedule  string
	logger    *logger.Logger

	mu       sync.Mutex
	checksum string // 마지막으로 반영한 본문 sha256
}

// NewRemoteDatasetJob creates a new remote refresh job
func NewRemoteDatasetJob(client Downloader, url string, maxBytes int64, s *store.MemoryStore, persister Persister, schedule string, log *logger.Logger) *RemoteDatasetJob {
	return &RemoteDatasetJob{
		client:    client,
		url:       url,
		maxBytes:  maxBytes,
		store:     s,
		persister: persister,
		schedule:  schedule,
		logger:    log.Component("remote_dataset"),
	}
}

// Name returns the job name
func (j *RemoteDatasetJob) Name() string {
	return "remote_dataset"
}

// Schedule returns the cron schedule
func (j *RemoteDatasetJob) Schedule() string {
	return j.schedule
}

// Run downloads the export and replaces the dataset when its content changed
func (j *RemoteDatasetJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := j.client.Download(ctx, j.url, j.maxBytes)
	if err != nil {
		return fmt.Errorf("download %s: %w", j.url, err)
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	// 내용이 같으면 로컬 Clear 이후에도 다시 적용하지 않음
	if checksum == j.checksum {
		j.logger.Debug("Remote dataset unchanged")
		return nil
	}

	ds, report, err := ingest.ParseNamed(bytes.NewReader(data), path.Base(j.url))
	if err != nil {
		return fmt.Errorf("parse remote dataset: %w", err)
	}

	if j.persister != nil {
		if _, err := j.persister.SaveDataset(ctx, ds); err != nil {
			return fmt.Errorf("persist remote dataset: %w", err)
		}
	}

	summary, err := j.store.Replace(ds)
	if err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	j.checksum = checksum

	j.logger.WithFields(map[string]interface{}{
		"url":          j.url,
		"funds":        report.Funds,
		"observations": report.Observations,
		"revision":     summary.Revision,
	}).Info("Dataset refreshed from remote export")

	return nil
}
