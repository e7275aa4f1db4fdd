package stream

import (
	"sync"
	"time"
)

// URLCache holds resolved direct media URLs keyed by record id. Entries
// are a pure optimization: a miss only costs a re-resolution, so stale
// reads and last-writer-wins refreshes are fine. Never a source of truth
// for record state.
type URLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry

	now func() time.Time // overridable in tests
}

type cacheEntry struct {
	url     string
	expires time.Time
}

func NewURLCache(ttl time.Duration) *URLCache {
	return &URLCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *URLCache) Get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		delete(c.entries, id)
		return "", false
	}
	return e.url, true
}

func (c *URLCache) Set(id, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{url: url, expires: c.now().Add(c.ttl)}
}
