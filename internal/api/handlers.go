package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/payload"
	"github.com/lei/status-tracker/internal/provider"
	"github.com/lei/status-tracker/internal/service"
	"github.com/lei/status-tracker/internal/upstream"
)

// Handlers contains HTTP handler functions
type Handlers struct {
	service *service.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{service: svc}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		if logger := GetLogger(r.Context()); logger != nil {
			logger.Warn("health check failed", "error", err)
		}
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Payload handles GET /api
func (h *Handlers) Payload(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Payload(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// LastUpdated handles GET /last_updated with Unix seconds
func (h *Handlers) LastUpdated(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.LastUpdated(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, float64(t.UnixMilli())/1000)
}

// Table handles GET /v1/table?search=&failing=
func (h *Handlers) Table(w http.ResponseWriter, r *http.Request) {
	logger := GetLogger(r.Context())

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	failing := parseBoolParam(r.URL.Query().Get("failing"))

	table, err := h.service.Table(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	total := len(table.Rows)
	table.Rows = FilterRows(table.Rows, search, failing)

	if logger != nil {
		logger.Debug("table served",
			"rows", len(table.Rows),
			"total_rows", total,
			"search", search)
	}

	respondJSON(w, http.StatusOK, table)
}

// Collect handles POST /v1/collect
func (h *Handlers) Collect(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Collect(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if logger := GetLogger(r.Context()); logger != nil {
		logger.Info("collection completed",
			"builds", summary.Builds,
			"failed_jobs", summary.FailedJobs)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error response with logging
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logger := GetLogger(r.Context())
	requestID := GetRequestID(r.Context())

	if logger != nil {
		logger.Error("returning error response",
			"status", status,
			"message", message,
			"request_id", requestID)
	}

	w.Header().Set("X-Request-ID", requestID)
	respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message":    message,
			"code":       status,
			"request_id": requestID,
		},
	})
}

// handleServiceError maps service errors to HTTP responses with detailed logging
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := GetLogger(r.Context())

	if logger != nil {
		logger.Error("service error occurred",
			"error", err.Error(),
			"error_type", fmt.Sprintf("%T", err))
	}

	var (
		providerErr *provider.ProviderError
		statusErr   *upstream.StatusError
	)

	switch {
	case errors.Is(err, payload.ErrNoData):
		respondError(w, r, http.StatusServiceUnavailable, "loading")
	case errors.Is(err, matrix.ErrContractViolation):
		respondError(w, r, http.StatusBadGateway, "malformed upstream payload")
	case errors.Is(err, service.ErrCollectorDisabled):
		respondError(w, r, http.StatusConflict, "collector not configured")
	case errors.Is(err, provider.ErrUnauthorized):
		respondError(w, r, http.StatusBadGateway, "provider authentication failed")
	case errors.Is(err, provider.ErrProviderUnavailable):
		respondError(w, r, http.StatusBadGateway, "provider temporarily unavailable")
	case errors.Is(err, provider.ErrNotFound):
		respondError(w, r, http.StatusBadGateway, "not found in provider")
	case errors.As(err, &providerErr):
		if logger != nil {
			logger.Error("provider error details",
				"provider_code", providerErr.Code,
				"provider_message", providerErr.Message,
				"underlying_error", providerErr.Err)
		}
		respondError(w, r, http.StatusBadGateway, "provider error")
	case errors.As(err, &statusErr):
		respondError(w, r, http.StatusBadGateway, "upstream error")
	default:
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
