package marketdata

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResponseCache is a short-TTL memoization of rendered API responses,
// kept by the route layer on top of the store's read accessors. It is
// deliberately distinct from the snapshot's own freshness tracking: a
// route can serve the same rendered payload for a minute while the
// underlying store refreshes independently.
type ResponseCache struct {
	entries *gocache.Cache
	ttl     time.Duration
}

// NewResponseCache creates a cache whose entries expire after ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: gocache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

// Get returns the cached payload for key, if present and unexpired.
func (c *ResponseCache) Get(key string) (any, bool) {
	return c.entries.Get(key)
}

// Set stores a payload under key with the cache's TTL.
func (c *ResponseCache) Set(key string, payload any) {
	c.entries.Set(key, payload, gocache.DefaultExpiration)
}

// Invalidate drops the entry for key, forcing the next caller to rebuild
// the payload. Used after a forced refresh.
func (c *ResponseCache) Invalidate(key string) {
	c.entries.Delete(key)
}
