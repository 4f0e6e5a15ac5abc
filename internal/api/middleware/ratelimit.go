package middleware

import (
	"net/http"
	"strings"

	"Pixelbox/internal/core/ratelimit"
)

// IPRateLimit guards public read paths with the per-IP token bucket.
type IPRateLimit struct {
	limiter *ratelimit.IPLimiter
}

// NewIPRateLimit wraps an IP limiter as HTTP middleware.
func NewIPRateLimit(limiter *ratelimit.IPLimiter) *IPRateLimit {
	return &IPRateLimit{limiter: limiter}
}

// Middleware rejects with 429 when the client IP's bucket is empty. Denied
// requests are never retried internally.
func (m *IPRateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Check(ClientIP(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "RateLimited", "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client address: the trusted proxy header first, then
// the first hop of X-Forwarded-For, then the loopback fallback.
func ClientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return "127.0.0.1"
}
