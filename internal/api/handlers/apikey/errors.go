package apikey

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"Pixelbox/internal/core/apikeys"
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

// handleServiceError converts key-management errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apikeys.ErrUsernameExists):
		writeError(w, http.StatusConflict, "UsernameExists", "this username already owns a key")
	case errors.Is(err, apikeys.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "no key exists for this username")
	case errors.Is(err, apikeys.ErrInactiveKey):
		writeError(w, http.StatusForbidden, "KeyDeactivated", "this API key has been deactivated")
	case errors.Is(err, apikeys.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "invalid API key")
	default:
		slog.Error("unhandled key service error", "error", err)
		writeError(w, http.StatusInternalServerError, "StorageFailure", "an internal error occurred")
	}
}
