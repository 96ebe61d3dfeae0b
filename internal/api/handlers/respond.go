package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusOf maps sentinel errors to HTTP status codes
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 여기서만
func statusOf(err error) int {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInvalidInput), errors.Is(err, contracts.ErrNoData):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrInvalidSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with its mapped status; 5xx details stay in the log
func respondErr(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("op", op).Error("Request failed")
		respondError(w, status, "Internal server error")
		return
	}

	log.WithError(err).WithField("op", op).Debug("Request rejected")
	respondError(w, status, err.Error())
}
