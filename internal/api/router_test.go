package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/profile"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// fundsCSV builds a three-fund sheet with 40 monthly columns from Jan 2020
func fundsCSV() string {
	var b strings.Builder
	b.WriteString("fund_name,ISIN,Morningstar Category,ASISA Sector (South Africa),Management Fee")
	for i := 0; i < 40; i++ {
		d := time.Date(2020, time.January+time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC)
		b.WriteString("," + d.Format("2006-01-02"))
	}
	b.WriteString("\n")

	names := []string{"Alpha Equity", "Beta Bond", "Gamma Balanced"}
	categories := []string{"Equity", "Fixed Income", "Balanced"}
	for k, name := range names {
		fmt.Fprintf(&b, "%s,ZAE00000%d,%s,SA Sector %d,1.%d", name, k+1, categories[k], k, k)
		for i := 0; i < 40; i++ {
			fmt.Fprintf(&b, ",%.2f", float64((i*(k+2))%7)-3+0.25*float64(k))
		}
		b.WriteString("\n")
	}
	return b.String()
}

type testServer struct {
	store   *store.MemoryStore
	handler http.Handler
}

func newTestServer(t *testing.T, persister ...*fakePersister) *testServer {
	t.Helper()
	s := store.NewMemoryStore()
	deps := RouterDeps{
		Store:          s,
		Service:        metrics.NewService(s, profile.Default(), logger.Nop()),
		MaxUploadBytes: 1 << 20,
		Logger:         logger.Nop(),
	}
	if len(persister) > 0 {
		deps.Persister = persister[0]
	}
	return &testServer{store: s, handler: NewRouter(deps)}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (ts *testServer) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func loaded(t *testing.T) *testServer {
	t.Helper()
	ts := newTestServer(t)
	rec := ts.upload(t, "funds.csv", fundsCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return ts
}

type fakePersister struct {
	calls int
	err   error
}

func (f *fakePersister) SaveDataset(_ context.Context, ds *store.Dataset) (*store.Version, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &store.Version{DatasetID: "v1", Source: ds.Source, SavedAt: time.Now()}, nil
}

// =============================================================================
// Dataset lifecycle
// =============================================================================

func TestHealth(t *testing.T) {
	rec, body := newTestServer(t).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestDataEndpointsRequireData(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/data-status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_data", body["status"])

	for _, path := range []string{"/api/funds", "/api/funds/1", "/api/performance/1", "/api/risk/1", "/api/report/1"} {
		rec, _ := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	rec, _ = ts.do(t, http.MethodPost, "/api/risk/batch", map[string]interface{}{"fund_ids": []int{1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAndClear(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "funds.csv", fundsCSV())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status  string `json:"status"`
		Summary struct {
			TotalFunds        int    `json:"total_funds"`
			TotalObservations int    `json:"total_observations"`
			FirstDate         string `json:"first_date"`
			LastDate          string `json:"last_date"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Summary.TotalFunds)
	assert.Equal(t, 120, resp.Summary.TotalObservations)
	assert.Equal(t, "2020-01-31", resp.Summary.FirstDate)
	assert.Equal(t, "2023-04-30", resp.Summary.LastDate)

	_, body := ts.do(t, http.MethodGet, "/api/data-status", nil)
	assert.Equal(t, "data_loaded", body["status"])

	rec, _ = ts.do(t, http.MethodDelete, "/api/data", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ts.store.HasData())
}

func TestUpload_Rejections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "funds.txt", fundsCSV())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ".xlsx")

	// 확장자만 xlsx인 CSV
	rec = ts.upload(t, "funds.xlsx", fundsCSV())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.upload(t, "broken.csv", "fund_name,2023-01-31\nAlpha,abc\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid return")

	assert.False(t, ts.store.HasData())
}

func TestUpload_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	rows := [][]interface{}{
		{"fund_name", "ISIN", "2023-01-31", "2023-02-28"},
		{"Alpha Equity", "ZAE000001", 1.5, -0.5},
		{"Beta Bond", "ZAE000002", 0.4, 0.3},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ts := newTestServer(t)
	rec := ts.upload(t, "export.xlsx", buf.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sum, err := ts.store.Summary()
	require.NoError(t, err)
	assert.Equal(t, "export.xlsx", sum.Source)
	assert.Equal(t, 2, sum.TotalFunds)
	assert.Equal(t, 4, sum.TotalObservations)
}

func TestUpload_Persisted(t *testing.T) {
	p := &fakePersister{}
	ts := newTestServer(t, p)

	rec := ts.upload(t, "funds.csv", fundsCSV())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.calls)
	assert.True(t, ts.store.HasData())
}

func TestUpload_PersistFailureKeepsPreviousDataset(t *testing.T) {
	p := &fakePersister{err: errors.New("connection refused")}
	ts := newTestServer(t, p)

	rec := ts.upload(t, "funds.csv", fundsCSV())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.False(t, ts.store.HasData())
}

// =============================================================================
// Funds
// =============================================================================

func TestFunds(t *testing.T) {
	ts := loaded(t)

	rec, body := ts.do(t, http.MethodGet, "/api/funds?search=beta", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])

	rec, body = ts.do(t, http.MethodGet, "/api/funds?category=Balanced", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])

	rec, _ = ts.do(t, http.MethodGet, "/api/funds?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = ts.do(t, http.MethodGet, "/api/funds/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alpha Equity", body["fund_name"])
	assert.Equal(t, "2020-01-31", body["inception_date"])

	rec, _ = ts.do(t, http.MethodGet, "/api/funds/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/funds/compare", "[2, 1]")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["funds"], 2)

	rec, body = ts.do(t, http.MethodPost, "/api/funds/compare", map[string]interface{}{"fund_ids": []int{3}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["funds"], 1)

	rec, _ = ts.do(t, http.MethodPost, "/api/funds/compare", "[]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Analytics
// =============================================================================

func TestSingleFundEndpoints(t *testing.T) {
	ts := loaded(t)

	tests := []struct {
		path    string
		wantKey string
	}{
		{"/api/returns/1", "cumulative_returns"},
		{"/api/performance/1", "periods"},
		{"/api/performance/1/calendar-years", "calendar_years"},
		{"/api/risk/1?risk_free_rate=3.5", "sharpe_ratio"},
		{"/api/risk/1/drawdown", "drawdown_series"},
		{"/api/report/1?window_months=6", "rolling"},
		{"/api/returns/2?start_date=2022-01-01&end_date=2022-12-31", "monthly_returns"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, body := ts.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, body, tt.wantKey)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestSingleFund_NullsSerialized(t *testing.T) {
	ts := loaded(t)

	// 40개월: 5Y/10Y 계산 불가 → null (키는 유지)
	rec, body := ts.do(t, http.MethodGet, "/api/performance/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	returnsByLabel, ok := body["returns"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, returnsByLabel, "5Y")
	assert.Nil(t, returnsByLabel["5Y"])
	assert.NotNil(t, returnsByLabel["3Y"])
}

func TestSingleFund_Errors(t *testing.T) {
	ts := loaded(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/performance/99", http.StatusNotFound},
		{"/api/risk/1?risk_free_rate=abc", http.StatusBadRequest},
		{"/api/returns/1?start_date=2022-12-31&end_date=2022-01-01", http.StatusBadRequest},
		{"/api/returns/1?start_date=31-12-2022", http.StatusBadRequest},
		{"/api/report/1?window_months=-3", http.StatusBadRequest},
		{"/api/report/1?window_months=0", http.StatusBadRequest},
		{"/api/performance/abc", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, _ := ts.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMultiFundEndpoints(t *testing.T) {
	ts := loaded(t)

	rec, body := ts.do(t, http.MethodPost, "/api/performance/compare", map[string]interface{}{"fund_ids": []int{1, 2, 99}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, body["funds"], 2)
	require.Len(t, body["failures"], 1)
	failure := body["failures"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(99), failure["fund_id"])
	assert.Equal(t, "not_found", failure["kind"])

	rec, body = ts.do(t, http.MethodPost, "/api/returns/multiple", map[string]interface{}{"fund_ids": []int{1, 3}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["dates"], 40)

	rec, body = ts.do(t, http.MethodPost, "/api/performance/rolling-returns", map[string]interface{}{"fund_ids": []int{1}, "window_months": 12})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(12), body["window_months"])

	// window 생략 시 프로파일 기본값
	rec, body = ts.do(t, http.MethodPost, "/api/performance/rolling-returns", map[string]interface{}{"fund_ids": []int{1}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(12), body["window_months"])

	rec, body = ts.do(t, http.MethodPost, "/api/risk/batch", map[string]interface{}{"fund_ids": []int{1, 2, 3}, "risk_free_rate": 2.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["funds"], 3)

	rec, body = ts.do(t, http.MethodPost, "/api/risk/correlation-matrix", map[string]interface{}{"fund_ids": []int{1, 2, 3}, "months": 36})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(36), body["window_months"])
	matrix := body["correlation_matrix"].(map[string]interface{})
	row := matrix["Alpha Equity"].(map[string]interface{})
	assert.Equal(t, 1.0, row["Alpha Equity"])
}

func TestMultiFund_Errors(t *testing.T) {
	ts := loaded(t)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"empty fund list", "/api/risk/batch", map[string]interface{}{"fund_ids": []int{}}},
		{"unsupported window", "/api/risk/correlation-matrix", map[string]interface{}{"fund_ids": []int{1, 2}, "months": 48}},
		{"unknown field", "/api/performance/compare", map[string]interface{}{"fund_ids": []int{1}, "bogus": true}},
		{"malformed json", "/api/performance/compare", "{"},
		{"inverted range", "/api/returns/multiple", map[string]interface{}{"fund_ids": []int{1}, "start_date": "2023-01-31", "end_date": "2022-01-31"}},
		{"negative window", "/api/performance/rolling-returns", map[string]interface{}{"fund_ids": []int{1}, "window_months": -1}},
		{"zero window", "/api/performance/rolling-returns", map[string]interface{}{"fund_ids": []int{1}, "window_months": 0}},
		{"zero correlation window", "/api/risk/correlation-matrix", map[string]interface{}{"fund_ids": []int{1, 2}, "months": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rec, body := newTestServer(t).do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["error"])
}

// =============================================================================
// Middleware
// =============================================================================

func TestRateLimit(t *testing.T) {
	s := store.NewMemoryStore()
	handler := NewRouter(RouterDeps{
		Store:          s,
		Service:        metrics.NewService(s, nil, nil),
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/data-status", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/data-status", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// 다른 클라이언트는 별도 버킷
	other := httptest.NewRequest(http.MethodGet, "/api/data-status", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	third := httptest.NewRecorder()
	handler.ServeHTTP(third, other)
	assert.Equal(t, http.StatusOK, third.Code)

	// health는 제한 대상 아님
	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestResponseCache_DisabledPassesThrough(t *testing.T) {
	calls := 0
	h := responseCacheMiddleware(nil, func() uint64 { return 1 }, "hash", time.Minute, logger.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/risk/1", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}
