package handlers

import (
	"net/http"

	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/pkg/logger"
)

// AnalyticsHandler exposes the metrics facade over HTTP
// ⭐ SSOT: 계산은 metrics.Service에서만, 핸들러는 파라미터 변환만
type AnalyticsHandler struct {
	svc    *metrics.Service
	logger *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc *metrics.Service, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: log}
}

// =============================================================================
// Single fund (GET)
// =============================================================================

// Returns serves monthly and cumulative returns
// GET /api/returns/{id}?start_date=&end_date=
func (h *AnalyticsHandler) Returns(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "returns", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "returns", err)
		return
	}

	result, err := h.svc.Returns(r.Context(), id, rng)
	if err != nil {
		respondErr(w, h.logger, "returns", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Performance serves the standard period returns
// GET /api/performance/{id}?start_date=&end_date=
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "performance", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "performance", err)
		return
	}

	result, err := h.svc.Performance(r.Context(), id, rng)
	if err != nil {
		respondErr(w, h.logger, "performance", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CalendarYears serves per-year returns
// GET /api/performance/{id}/calendar-years
func (h *AnalyticsHandler) CalendarYears(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "calendar_years", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "calendar_years", err)
		return
	}

	result, err := h.svc.CalendarYears(r.Context(), id, rng)
	if err != nil {
		respondErr(w, h.logger, "calendar_years", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Risk serves the risk profile
// GET /api/risk/{id}?start_date=&end_date=&risk_free_rate=
func (h *AnalyticsHandler) Risk(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "risk", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "risk", err)
		return
	}
	rf, err := queryFloat(r, "risk_free_rate")
	if err != nil {
		respondErr(w, h.logger, "risk", err)
		return
	}

	result, err := h.svc.Risk(r.Context(), id, metrics.RiskRequest{Range: rng, RiskFreeRate: rf})
	if err != nil {
		respondErr(w, h.logger, "risk", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Drawdown serves the drawdown series and worst episode
// GET /api/risk/{id}/drawdown?start_date=&end_date=
func (h *AnalyticsHandler) Drawdown(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "drawdown", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "drawdown", err)
		return
	}

	result, err := h.svc.Drawdown(r.Context(), id, rng)
	if err != nil {
		respondErr(w, h.logger, "drawdown", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Report serves every single-fund analytic in one response
// GET /api/report/{id}?start_date=&end_date=&risk_free_rate=&window_months=
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "report", err)
		return
	}
	rng, err := queryRange(r)
	if err != nil {
		respondErr(w, h.logger, "report", err)
		return
	}
	rf, err := queryFloat(r, "risk_free_rate")
	if err != nil {
		respondErr(w, h.logger, "report", err)
		return
	}
	window, err := queryOptionalInt(r, "window_months")
	if err != nil {
		respondErr(w, h.logger, "report", err)
		return
	}

	result, err := h.svc.Report(r.Context(), id, metrics.ReportRequest{
		Range:               rng,
		RiskFreeRate:        rf,
		RollingWindowMonths: window,
	})
	if err != nil {
		respondErr(w, h.logger, "report", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// =============================================================================
// Multi fund (POST)
// =============================================================================

// decodeFunds reads a FundsRequest and its date range
func (h *AnalyticsHandler) decodeFunds(w http.ResponseWriter, r *http.Request, op string) (FundsRequest, bool) {
	var req FundsRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondErr(w, h.logger, op, err)
		return req, false
	}
	return req, true
}

// MultipleReturns aligns several funds on one date grid
// POST /api/returns/multiple
func (h *AnalyticsHandler) MultipleReturns(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFunds(w, r, "multiple_returns")
	if !ok {
		return
	}
	rng, err := req.dateRange()
	if err != nil {
		respondErr(w, h.logger, "multiple_returns", err)
		return
	}

	result, err := h.svc.MultipleReturns(r.Context(), req.FundIDs, rng)
	if err != nil {
		respondErr(w, h.logger, "multiple_returns", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Compare computes period returns for several funds
// POST /api/performance/compare
func (h *AnalyticsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFunds(w, r, "compare")
	if !ok {
		return
	}
	rng, err := req.dateRange()
	if err != nil {
		respondErr(w, h.logger, "compare", err)
		return
	}

	result, err := h.svc.Compare(r.Context(), req.FundIDs, rng)
	if err != nil {
		respondErr(w, h.logger, "compare", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Rolling computes rolling returns for several funds
// POST /api/performance/rolling-returns
func (h *AnalyticsHandler) Rolling(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFunds(w, r, "rolling")
	if !ok {
		return
	}
	rng, err := req.dateRange()
	if err != nil {
		respondErr(w, h.logger, "rolling", err)
		return
	}

	result, err := h.svc.Rolling(r.Context(), req.FundIDs, req.Window, rng)
	if err != nil {
		respondErr(w, h.logger, "rolling", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// BatchRisk computes risk profiles for several funds
// POST /api/risk/batch
func (h *AnalyticsHandler) BatchRisk(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFunds(w, r, "batch_risk")
	if !ok {
		return
	}
	rng, err := req.dateRange()
	if err != nil {
		respondErr(w, h.logger, "batch_risk", err)
		return
	}

	result, err := h.svc.BatchRisk(r.Context(), req.FundIDs, metrics.RiskRequest{Range: rng, RiskFreeRate: req.RiskFree})
	if err != nil {
		respondErr(w, h.logger, "batch_risk", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Correlation computes the pairwise correlation matrix
// POST /api/risk/correlation-matrix  (months: 36, 60 or 120)
func (h *AnalyticsHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFunds(w, r, "correlation")
	if !ok {
		return
	}
	rng, err := req.dateRange()
	if err != nil {
		respondErr(w, h.logger, "correlation", err)
		return
	}

	result, err := h.svc.Correlation(r.Context(), req.FundIDs, req.Months, rng)
	if err != nil {
		respondErr(w, h.logger, "correlation", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
