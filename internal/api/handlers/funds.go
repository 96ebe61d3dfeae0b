package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// FundHandler serves fund listings and static attributes
type FundHandler struct {
	store  *store.MemoryStore
	logger *logger.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(s *store.MemoryStore, log *logger.Logger) *FundHandler {
	return &FundHandler{store: s, logger: log}
}

// List returns a filtered page of funds
// GET /api/funds?category=&sector=&search=&skip=0&limit=100
func (h *FundHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		respondErr(w, h.logger, "list_funds", err)
		return
	}
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		respondErr(w, h.logger, "list_funds", err)
		return
	}
	if skip < 0 || limit <= 0 || limit > 1000 {
		respondError(w, http.StatusBadRequest, "skip must be >= 0 and limit in 1..1000")
		return
	}

	page, err := h.store.ListFunds(store.FundFilter{
		Category: q.Get("category"),
		Sector:   q.Get("sector"),
		Search:   q.Get("search"),
		Skip:     skip,
		Limit:    limit,
	})
	if err != nil {
		respondErr(w, h.logger, "list_funds", err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// Get returns one fund with its inception date
// GET /api/funds/{id}
func (h *FundHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := fundIDVar(r)
	if err != nil {
		respondErr(w, h.logger, "get_fund", err)
		return
	}

	detail, err := h.store.FundDetail(r.Context(), id)
	if err != nil {
		respondErr(w, h.logger, "get_fund", err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Compare returns static attributes side by side
// POST /api/funds/compare  body: [1,2] or {"fund_ids":[1,2]}
func (h *FundHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeFundIDs(w, r)
	if err != nil {
		respondErr(w, h.logger, "compare_funds", err)
		return
	}

	cmp, err := h.store.CompareFunds(ids)
	if err != nil {
		respondErr(w, h.logger, "compare_funds", err)
		return
	}

	respondJSON(w, http.StatusOK, cmp)
}

func decodeFundIDs(w http.ResponseWriter, r *http.Request) ([]int64, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrInvalidInput, err)
	}

	var ids []int64
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &ids)
	} else {
		var req FundsRequest
		err = json.Unmarshal(data, &req)
		ids = req.FundIDs
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", contracts.ErrInvalidInput, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: fund_ids must not be empty", contracts.ErrInvalidInput)
	}
	return ids, nil
}
