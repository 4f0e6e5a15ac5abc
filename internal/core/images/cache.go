package images

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResponseCache is a TTL-bounded, capacity-bounded cache of fully built
// image responses keyed by filename. It is a pure accelerator: a miss only
// costs latency, never correctness. Consistency is eventual, bounded by the
// TTL; a write to an image invalidates only that image's entry.
type ResponseCache struct {
	lru *expirable.LRU[string, *ImageResponse]
}

// NewResponseCache creates a cache holding up to size entries, each expiring
// after ttl.
func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		lru: expirable.NewLRU[string, *ImageResponse](size, nil, ttl),
	}
}

// Get returns the cached response for filename, if present and unexpired.
func (c *ResponseCache) Get(filename string) (*ImageResponse, bool) {
	return c.lru.Get(filename)
}

// Put stores a fully materialized response.
func (c *ResponseCache) Put(filename string, resp *ImageResponse) {
	c.lru.Add(filename, resp)
}

// Invalidate drops the entry for filename, if any.
func (c *ResponseCache) Invalidate(filename string) {
	c.lru.Remove(filename)
}
