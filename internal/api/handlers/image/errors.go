package image

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Pixelbox/internal/core/images"
)

// APIError represents a JSON error response
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{
		Error:   errType,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// writeJSON writes a JSON success response
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, images.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "no image matches the request")
	case errors.Is(err, images.ErrDuplicate):
		writeError(w, http.StatusConflict, "Duplicate", "identical image content is already stored")
	case errors.Is(err, images.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "InvalidUrl", err.Error())
	case errors.Is(err, images.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "UnsupportedFormat", err.Error())
	case errors.Is(err, images.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "FileTooLarge", err.Error())
	case errors.Is(err, images.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, "FetchFailed", err.Error())
	default:
		slog.Error("unhandled image service error", "error", err)
		writeError(w, http.StatusInternalServerError, "StorageFailure", "an internal error occurred")
	}
}
