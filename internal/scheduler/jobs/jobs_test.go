package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

func dataset(source string, funds int) *store.Dataset {
	ds := &store.Dataset{Source: source, Series: map[int64]contracts.ReturnSeries{}}
	for i := 1; i <= funds; i++ {
		id := int64(i)
		ds.Funds = append(ds.Funds, contracts.Fund{ID: id, Name: fmt.Sprintf("Fund %d", i)})
		ds.Series[id] = contracts.NewReturnSeries(id, []contracts.ReturnObservation{
			{FundID: id, Date: contracts.MonthEnd(2023, time.January), ReturnPct: 1},
			{FundID: id, Date: contracts.MonthEnd(2023, time.February), ReturnPct: -1},
		})
	}
	return ds
}

type fakeVersioned struct {
	version *store.Version
	ds      *store.Dataset
	loads   int
	err     error
}

func (f *fakeVersioned) LatestVersion(context.Context) (*store.Version, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.version == nil {
		return nil, contracts.ErrNoData
	}
	return f.version, nil
}

func (f *fakeVersioned) LoadDataset(ctx context.Context) (*store.Dataset, *store.Version, error) {
	f.loads++
	return f.ds, f.version, nil
}

func TestDatasetReloadJob(t *testing.T) {
	src := &fakeVersioned{}
	mem := store.NewMemoryStore()
	job := NewDatasetReloadJob(src, mem, "@every 1m", logger.Nop())
	ctx := context.Background()

	assert.Equal(t, "dataset_reload", job.Name())
	assert.Equal(t, "@every 1m", job.Schedule())

	// 저장된 데이터셋 없음: no-op
	require.NoError(t, job.Run(ctx))
	assert.False(t, mem.HasData())

	src.version = &store.Version{DatasetID: "v1", Source: "a.csv"}
	src.ds = dataset("a.csv", 2)
	require.NoError(t, job.Run(ctx))
	assert.True(t, mem.HasData())
	assert.Equal(t, 1, src.loads)

	// 같은 버전이면 다시 읽지 않음
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 1, src.loads)

	src.version = &store.Version{DatasetID: "v2", Source: "b.csv"}
	src.ds = dataset("b.csv", 3)
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 2, src.loads)
	sum, err := mem.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalFunds)

}

func TestDatasetReloadJob_ClearStaysCleared(t *testing.T) {
	src := &fakeVersioned{version: &store.Version{DatasetID: "v1", Source: "a.csv"}, ds: dataset("a.csv", 2)}
	mem := store.NewMemoryStore()
	job := NewDatasetReloadJob(src, mem, "@every 1m", logger.Nop())
	ctx := context.Background()

	require.NoError(t, job.Run(ctx))
	require.True(t, mem.HasData())

	// DELETE /api/data 이후 다음 주기에도 같은 버전을 되살리지 않음
	mem.Clear()
	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))
	assert.False(t, mem.HasData())
	assert.Equal(t, 1, src.loads)

	// 새 버전이 저장되면 다시 반영
	src.version = &store.Version{DatasetID: "v2", Source: "b.csv"}
	src.ds = dataset("b.csv", 3)
	require.NoError(t, job.Run(ctx))
	assert.True(t, mem.HasData())
	assert.Equal(t, 2, src.loads)
}

func TestDatasetReloadJob_MarkLoadedSkipsOwnUpload(t *testing.T) {
	src := &fakeVersioned{version: &store.Version{DatasetID: "v9"}, ds: dataset("x.csv", 1)}
	mem := store.NewMemoryStore()
	_, err := mem.Replace(dataset("x.csv", 1))
	require.NoError(t, err)

	job := NewDatasetReloadJob(src, mem, "@hourly", logger.Nop())
	job.MarkLoaded("v9")
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, src.loads)
}

func TestDatasetReloadJob_SourceError(t *testing.T) {
	src := &fakeVersioned{err: errors.New("connection reset")}
	job := NewDatasetReloadJob(src, store.NewMemoryStore(), "@hourly", logger.Nop())
	assert.Error(t, job.Run(context.Background()))
}

type fakeDownloader struct {
	body  string
	err   error
	calls int
}

func (f *fakeDownloader) Download(context.Context, string, int64) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

type countingPersister struct{ saved int }

func (p *countingPersister) SaveDataset(_ context.Context, ds *store.Dataset) (*store.Version, error) {
	p.saved++
	return &store.Version{DatasetID: "p", Source: ds.Source}, nil
}

func TestRemoteDatasetJob(t *testing.T) {
	dl := &fakeDownloader{body: "fund_name,2023-01-31,2023-02-28\nAlpha,1,2\nBeta,0.5,\n"}
	p := &countingPersister{}
	mem := store.NewMemoryStore()
	job := NewRemoteDatasetJob(dl, "https://example.com/exports/funds.csv", 1<<20, mem, p, "@hourly", logger.Nop())
	ctx := context.Background()

	require.NoError(t, job.Run(ctx))
	sum, err := mem.Summary()
	require.NoError(t, err)
	assert.Equal(t, "funds.csv", sum.Source)
	assert.Equal(t, 2, sum.TotalFunds)
	assert.Equal(t, 1, p.saved)

	// 본문이 같으면 재적용하지 않음
	rev := mem.Revision()
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, rev, mem.Revision())
	assert.Equal(t, 1, p.saved)

	dl.body = strings.Replace(dl.body, "Beta,0.5,", "Beta,0.5,0.7", 1)
	require.NoError(t, job.Run(ctx))
	assert.NotEqual(t, rev, mem.Revision())
	assert.Equal(t, 2, p.saved)

	// Clear 이후 같은 export는 다시 적용하지 않음
	mem.Clear()
	require.NoError(t, job.Run(ctx))
	assert.False(t, mem.HasData())
	assert.Equal(t, 2, p.saved)
}

func TestRemoteDatasetJob_Errors(t *testing.T) {
	mem := store.NewMemoryStore()

	job := NewRemoteDatasetJob(&fakeDownloader{err: errors.New("503")}, "https://example.com/f.csv", 0, mem, nil, "@hourly", logger.Nop())
	assert.Error(t, job.Run(context.Background()))

	job = NewRemoteDatasetJob(&fakeDownloader{body: "not,a,sheet\n"}, "https://example.com/f.csv", 0, mem, nil, "@hourly", logger.Nop())
	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrInvalidInput))
	assert.False(t, mem.HasData())
}

func TestHealthJob(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	assert.NoError(t, NewHealthJob(map[string]HealthCheck{"db": ok}, logger.Nop()).Run(context.Background()))

	err := NewHealthJob(map[string]HealthCheck{"db": ok, "redis": down}, logger.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: down")
}
