package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LimitSource resolves a key's requests-per-second ceiling from the catalog
// at check time. A nil result means the key is unlimited.
type LimitSource interface {
	RateLimitFor(ctx context.Context, key string) (*int, error)
}

// KeyLimiter is a sliding-window limiter per API key. The effective ceiling
// is looked up from the catalog on every check (cache-free, always current);
// a lookup failure degrades to the process-wide default rather than failing
// open or rejecting outright.
type KeyLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time

	source       LimitSource
	defaultLimit int
	window       time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewKeyLimiter creates a key limiter with the given default ceiling and
// window size.
func NewKeyLimiter(source LimitSource, defaultLimit int, window time.Duration) *KeyLimiter {
	return &KeyLimiter{
		requests:     make(map[string][]time.Time),
		source:       source,
		defaultLimit: defaultLimit,
		window:       window,
		now:          time.Now,
	}
}

// Check reports whether a request under key is allowed right now, recording
// it if so. The catalog lookup runs outside the lock; the critical section
// covers only the timestamp list mutation.
func (l *KeyLimiter) Check(ctx context.Context, key string) bool {
	limit := l.defaultLimit
	override, err := l.source.RateLimitFor(ctx, key)
	switch {
	case err != nil:
		slog.Warn("failed to resolve key rate limit, using default",
			"error", err, "default", l.defaultLimit)
	case override == nil:
		// No override means unlimited; nothing is recorded.
		return true
	default:
		limit = *override
	}

	now := l.now()
	windowStart := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	times := l.requests[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		l.requests[key] = kept
		slog.Warn("key rate limit exceeded", "count", len(kept), "limit", limit, "window", l.window)
		return false
	}

	l.requests[key] = append(kept, now)
	return true
}
