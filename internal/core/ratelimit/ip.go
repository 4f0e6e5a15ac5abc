// Package ratelimit provides the two independent rate-limit disciplines
// protecting the service: a token bucket per client IP for public read
// paths, and a sliding window per API key with per-key ceilings resolved
// from the catalog.
//
// Both limiters are owned, injected service objects constructed once at
// startup and shared by handle; neither is process-global state.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor pairs a bucket with its last access time so idle entries can be
// evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter keeps one token bucket per client IP. Capacity and refill rate
// are fixed at construction. Check is non-blocking: a denied caller must
// propagate the rejection, never retry internally.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

// NewIPLimiter creates an IP limiter refilling at rps tokens per second up
// to burst capacity, and starts a janitor that evicts idle buckets.
func NewIPLimiter(rps float64, burst int) *IPLimiter {
	l := &IPLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.cleanup()
	return l
}

// Check reports whether a request from ip is allowed right now, consuming
// one token if so.
func (l *IPLimiter) Check(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow()
}

// cleanup evicts buckets unused for three minutes. A full bucket carries no
// state worth keeping.
func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-3 * time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if v.lastSeen.Before(cutoff) {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}
