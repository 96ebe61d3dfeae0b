package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/fundscope/internal/contracts"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

func fundIDVar(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid fund id %q", contracts.ErrInvalidInput, raw)
	}
	return id, nil
}

func queryRange(r *http.Request) (contracts.DateRange, error) {
	q := r.URL.Query()
	return contracts.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
}

// queryFloat returns nil when the parameter is absent
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number, got %q", contracts.ErrInvalidInput, name, raw)
	}
	return &v, nil
}

// queryInt returns def when the parameter is absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", contracts.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// queryOptionalInt returns nil when the parameter is absent ("0" is kept as 0)
func queryOptionalInt(r *http.Request, name string) (*int, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return nil, nil
	}
	v, err := queryInt(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", contracts.ErrInvalidInput, err)
	}
	return nil
}

// FundsRequest is the common multi-fund body
type FundsRequest struct {
	FundIDs   []int64  `json:"fund_ids"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	RiskFree  *float64 `json:"risk_free_rate,omitempty"`
	Window    *int     `json:"window_months,omitempty"`
	Months    *int     `json:"months,omitempty"` // 상관계수 윈도우 (nil = 기본값)
}

func (req FundsRequest) dateRange() (contracts.DateRange, error) {
	return contracts.ParseDateRange(req.StartDate, req.EndDate)
}
