package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// VersionedSource is the persisted dataset the reload job follows
type VersionedSource interface {
	LatestVersion(ctx context.Context) (*store.Version, error)
	LoadDataset(ctx context.Context) (*store.Dataset, *store.Version, error)
}

// DatasetReloadJob pulls the persisted dataset into memory when its version changes
// ⭐ SSOT: 다중 인스턴스 간 데이터셋 동기화는 이 Job에서만
type DatasetReloadJob struct {
	source   VersionedSource
	store    *store.MemoryStore
	schedule string
	logger   *logger.Logger

	mu     sync.Mutex
	loaded string // 마지막으로 반영한 dataset_id
}

// NewDatasetReloadJob creates a new reload job
func NewDatasetReloadJob(source VersionedSource, s *store.MemoryStore, schedule string, log *logger.Logger) *DatasetReloadJob {
	return &DatasetReloadJob{
		source:   source,
		store:    s,
		schedule: schedule,
		logger:   log.Component("dataset_reload"),
	}
}

// Name returns the job name
func (j *DatasetReloadJob) Name() string {
	return "dataset_reload"
}

// Schedule returns the cron schedule
func (j *DatasetReloadJob) Schedule() string {
	return j.schedule
}

// MarkLoaded records a version already applied elsewhere (upload on this instance)
func (j *DatasetReloadJob) MarkLoaded(datasetID string) {
	j.mu.Lock()
	j.loaded = datasetID
	j.mu.Unlock()
}

// Run checks the persisted version and reloads on change
func (j *DatasetReloadJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	v, err := j.source.LatestVersion(ctx)
	if errors.Is(err, contracts.ErrNoData) {
		j.logger.Debug("No persisted dataset yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest version: %w", err)
	}
	// 로컬 Clear 이후에도 같은 버전은 다시 읽지 않음 (새 버전이 저장될 때만 반영)
	if v.DatasetID == j.loaded {
		return nil
	}

	ds, v, err := j.source.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	summary, err := j.store.Replace(ds)
	if err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	j.loaded = v.DatasetID

	j.logger.WithFields(map[string]interface{}{
		"dataset_id":   v.DatasetID,
		"source":       v.Source,
		"funds":        summary.TotalFunds,
		"observations": summary.TotalObservations,
	}).Info("Dataset reloaded from database")

	return nil
}
