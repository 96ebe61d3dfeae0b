package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/ingest"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// Persister saves an uploaded dataset beyond process memory
type Persister interface {
	SaveDataset(ctx context.Context, ds *store.Dataset) (*store.Version, error)
}

// DataHandler handles dataset upload and lifecycle endpoints
// ⭐ SSOT: 데이터셋 교체는 이 핸들러(업로드)와 reload job에서만
type DataHandler struct {
	store     *store.MemoryStore
	persister Persister // nil = 메모리 전용
	maxUpload int64
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(s *store.MemoryStore, persister Persister, maxUpload int64, log *logger.Logger) *DataHandler {
	return &DataHandler{
		store:     s,
		persister: persister,
		maxUpload: maxUpload,
		logger:    log,
	}
}

// Upload parses a CSV or XLSX export and replaces the loaded dataset
// POST /api/upload (multipart field "file")
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", h.maxUpload))
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing form field \"file\"")
		return
	}
	defer file.Close()

	if !ingest.Supported(header.Filename) {
		respondError(w, http.StatusBadRequest, "File must be CSV or Excel format (.csv, .xlsx)")
		return
	}

	ds, report, err := ingest.ParseNamed(file, header.Filename)
	if err != nil {
		respondErr(w, h.logger, "upload", err)
		return
	}

	// 영속화 실패 시 메모리 데이터셋은 교체하지 않음
	if h.persister != nil {
		version, err := h.persister.SaveDataset(ctx, ds)
		if err != nil {
			respondErr(w, h.logger, "upload", err)
			return
		}
		h.logger.WithField("dataset_id", version.DatasetID).Info("Dataset persisted")
	}

	summary, err := h.store.Replace(ds)
	if err != nil {
		respondErr(w, h.logger, "upload", err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"source":       header.Filename,
		"funds":        report.Funds,
		"observations": report.Observations,
		"revision":     summary.Revision,
	}).Info("Dataset uploaded")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "File uploaded and processed successfully",
		"summary": summary,
		"report":  report,
	})
}

// Status reports whether a dataset is loaded
// GET /api/data-status
func (h *DataHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary()
	if errors.Is(err, contracts.ErrNoData) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "no_data",
			"message": "No data loaded. Please upload a fund returns CSV file.",
		})
		return
	}
	if err != nil {
		respondErr(w, h.logger, "data_status", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "data_loaded",
		"summary": summary,
	})
}

// Clear drops the loaded dataset from memory
// DELETE /api/data
func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.logger.Info("Dataset cleared")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Data cleared successfully",
	})
}

// RequireData rejects data endpoints while no dataset is loaded
func (h *DataHandler) RequireData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.store.HasData() {
			respondError(w, http.StatusBadRequest, "No data loaded. Please upload a fund returns CSV file first.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
