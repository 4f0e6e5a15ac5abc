// Package apikey provides the admin HTTP handlers for API-key management.
package apikey

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"Pixelbox/internal/core/apikeys"
)

// Handler handles HTTP requests for API-key management. Every route here is
// admin-only; the router enforces that.
type Handler struct {
	service apikeys.Service
}

// NewHandler creates a new API-key handler.
func NewHandler(service apikeys.Service) *Handler {
	return &Handler{service: service}
}

type generateRequest struct {
	Username          string `json:"username"`
	RequestsPerSecond *int   `json:"requests_per_second,omitempty"`
	MaxBatchSize      *int   `json:"max_batch_size,omitempty"`
}

// HandleGenerate handles POST /keys
// Mints a key for a username. Usernames are unique; re-issuing requires
// removing the old key first.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "username is required")
		return
	}
	if req.RequestsPerSecond != nil && *req.RequestsPerSecond < 1 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "requests_per_second must be at least 1")
		return
	}
	if req.MaxBatchSize != nil && *req.MaxBatchSize < 1 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "max_batch_size must be at least 1")
		return
	}

	key, err := h.service.Generate(r.Context(), req.Username, req.RequestsPerSecond, req.MaxBatchSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// HandleList handles GET /keys
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// HandleRemove handles DELETE /keys/{username}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "username is required")
		return
	}

	if err := h.service.Remove(r.Context(), username); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type rateLimitRequest struct {
	RequestsPerSecond *int `json:"requests_per_second"`
}

// HandleSetRateLimit handles PUT /keys/{username}/ratelimit
// A null requests_per_second clears the override, leaving the key unlimited.
func (h *Handler) HandleSetRateLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "username is required")
		return
	}

	var req rateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if req.RequestsPerSecond != nil && *req.RequestsPerSecond < 1 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "requests_per_second must be at least 1")
		return
	}

	if err := h.service.SetRateLimit(r.Context(), username, req.RequestsPerSecond); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	IsActive bool `json:"is_active"`
}

// HandleSetStatus handles PATCH /keys/{username}/status
// Deactivation is the soft alternative to removal: the key row stays so
// callers of it get a distinct "deactivated" rejection.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "username is required")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}

	if err := h.service.SetActive(r.Context(), username, req.IsActive); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
