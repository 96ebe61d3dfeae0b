package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fundscope/internal/contracts"
)

// MemoryStore holds the current dataset for the session
// ⭐ SSOT: 업로드 데이터의 유일한 보관소 (엔진에는 FundSource로만 노출)
// Replace는 데이터셋 전체를 원자적으로 교체, 발행된 시계열은 이후 변경하지 않음
type MemoryStore struct {
	mu       sync.RWMutex
	funds    map[int64]contracts.Fund
	series   map[int64]contracts.ReturnSeries
	order    []contracts.Fund
	summary  contracts.DatasetSummary
	revision uint64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps in a new dataset and bumps the revision
func (m *MemoryStore) Replace(ds *Dataset) (contracts.DatasetSummary, error) {
	if err := ds.Validate(); err != nil {
		return contracts.DatasetSummary{}, err
	}

	funds := make(map[int64]contracts.Fund, len(ds.Funds))
	order := make([]contracts.Fund, len(ds.Funds))
	for i, f := range ds.Funds {
		funds[f.ID] = f
		order[i] = f
	}
	series := make(map[int64]contracts.ReturnSeries, len(ds.Series))
	for id, s := range ds.Series {
		series[id] = s.Clone()
	}

	summary := ds.summarize()
	summary.DatasetID = uuid.NewString()
	now := time.Now().UTC()
	summary.LoadedAt = &now

	m.mu.Lock()
	defer m.mu.Unlock()

	m.funds = funds
	m.series = series
	m.order = order
	m.revision++
	summary.Revision = m.revision
	m.summary = summary

	return summary, nil
}

// Clear drops the dataset
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.funds = nil
	m.series = nil
	m.order = nil
	m.summary = contracts.DatasetSummary{}
	m.revision++
}

// HasData reports whether a dataset is loaded
func (m *MemoryStore) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.funds != nil
}

// Revision changes on every Replace/Clear (캐시 키 구성용)
func (m *MemoryStore) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Summary describes the loaded dataset
func (m *MemoryStore) Summary() (contracts.DatasetSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return contracts.DatasetSummary{Revision: m.revision}, contracts.ErrNoData
	}
	return m.summary, nil
}

// Fund implements contracts.FundSource
func (m *MemoryStore) Fund(_ context.Context, id int64) (*contracts.Fund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return nil, contracts.ErrNoData
	}
	f, ok := m.funds[id]
	if !ok {
		return nil, fmt.Errorf("%w: fund %d", contracts.ErrNotFound, id)
	}
	return &f, nil
}

// Series implements contracts.FundSource
// 펀드는 있으나 관측이 없으면 빈 시계열
func (m *MemoryStore) Series(_ context.Context, id int64) (contracts.ReturnSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return contracts.ReturnSeries{}, contracts.ErrNoData
	}
	if _, ok := m.funds[id]; !ok {
		return contracts.ReturnSeries{}, fmt.Errorf("%w: fund %d", contracts.ErrNotFound, id)
	}
	s, ok := m.series[id]
	if !ok {
		return contracts.NewReturnSeries(id, []contracts.ReturnObservation{}), nil
	}
	return s, nil
}

// ListFunds filters and paginates the loaded funds
func (m *MemoryStore) ListFunds(filter FundFilter) (FundPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return FundPage{}, contracts.ErrNoData
	}
	return filterFunds(m.order, filter), nil
}

// FundDetail returns a fund with its inception date
func (m *MemoryStore) FundDetail(ctx context.Context, id int64) (*FundDetail, error) {
	f, err := m.Fund(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := m.Series(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &FundDetail{Fund: *f, Observations: s.Len()}
	if first, ok := s.First(); ok {
		d.InceptionDate = &first
	}
	if last, ok := s.Latest(); ok {
		d.LatestDate = &last
	}
	return d, nil
}

// CompareFunds returns static fields for the requested ids in request order.
// Unknown ids are skipped; ErrNotFound only when none match.
func (m *MemoryStore) CompareFunds(ids []int64) (*FundComparison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return nil, contracts.ErrNoData
	}

	out := &FundComparison{Funds: make([]contracts.Fund, 0, len(ids)), ComparisonFields: ComparisonFields}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		f, ok := m.funds[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out.Funds = append(out.Funds, f)
	}

	if len(out.Funds) == 0 {
		return nil, fmt.Errorf("%w: no funds found with provided ids", contracts.ErrNotFound)
	}
	return out, nil
}

// Snapshot returns the loaded dataset for persistence
func (m *MemoryStore) Snapshot() (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.funds == nil {
		return nil, contracts.ErrNoData
	}

	ds := &Dataset{
		Source: m.summary.Source,
		Funds:  make([]contracts.Fund, len(m.order)),
		Series: make(map[int64]contracts.ReturnSeries, len(m.series)),
	}
	copy(ds.Funds, m.order)
	for id, s := range m.series {
		ds.Series[id] = s.Clone()
	}
	return ds, nil
}
