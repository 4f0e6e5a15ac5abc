package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"Pixelbox/internal/core/apikeys"
	"Pixelbox/internal/core/ratelimit"
)

// Context keys for storing caller information
type contextKey string

const AuthInfoKey contextKey = "auth_info"

// AuthInfo describes the authenticated caller for downstream handlers.
type AuthInfo struct {
	Admin    bool
	Username string
	BatchMax int // largest batch the key may request; 1 when batching is off
}

// KeyAuth enforces bearer API-key authentication for protected routes.
// The admin key bypasses both validation and the per-key rate limiter.
type KeyAuth struct {
	adminKey string
	keys     apikeys.Service
	limiter  *ratelimit.KeyLimiter
}

// NewKeyAuth creates a new API-key auth middleware.
func NewKeyAuth(adminKey string, keys apikeys.Service, limiter *ratelimit.KeyLimiter) *KeyAuth {
	return &KeyAuth{
		adminKey: adminKey,
		keys:     keys,
		limiter:  limiter,
	}
}

// RequireKey middleware ensures the request carries a valid bearer token.
// Returns 401 for missing or unknown keys, 403 for deactivated keys and
// 429 when the key's sliding window is exhausted.
func (m *KeyAuth) RequireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", "Missing or malformed Authorization header. Expected: Bearer <key>")
			return
		}

		// The admin key is configured out-of-band and is never rate limited.
		if token == m.adminKey {
			ctx := context.WithValue(r.Context(), AuthInfoKey, &AuthInfo{Admin: true, BatchMax: 1 << 20})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if !m.limiter.Check(r.Context(), token) {
			writeJSONError(w, http.StatusTooManyRequests, "RateLimited", "rate limit exceeded for this key")
			return
		}

		key, err := m.keys.Validate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apikeys.ErrInactiveKey):
				writeJSONError(w, http.StatusForbidden, "KeyDeactivated", "this API key has been deactivated")
			default:
				slog.Info("auth failure",
					"ip", ClientIP(r), "method", r.Method, "path", r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", "invalid API key")
			}
			return
		}

		m.keys.TouchLastUsed(r.Context(), token)

		ctx := context.WithValue(r.Context(), AuthInfoKey, &AuthInfo{
			Username: key.Username,
			BatchMax: key.BatchCeiling(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin middleware restricts a route to the configured admin key.
func (m *KeyAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", "Missing or malformed Authorization header. Expected: Bearer <key>")
			return
		}
		if token != m.adminKey {
			slog.Info("admin auth failure",
				"ip", ClientIP(r), "method", r.Method, "path", r.URL.Path)
			writeJSONError(w, http.StatusUnauthorized, "AuthenticationRequired", "admin key required")
			return
		}
		ctx := context.WithValue(r.Context(), AuthInfoKey, &AuthInfo{Admin: true, BatchMax: 1 << 20})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthInfoFrom extracts the caller identity from the request context.
// Returns nil on unauthenticated requests.
func AuthInfoFrom(ctx context.Context) *AuthInfo {
	info, _ := ctx.Value(AuthInfoKey).(*AuthInfo)
	return info
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// writeJSONError writes a JSON error response for middleware rejections
func writeJSONError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   errType,
		"message": message,
	}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
