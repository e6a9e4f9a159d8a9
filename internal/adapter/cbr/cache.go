package cbr

import (
	"fmt"
	"sync"
	"time"
)

// cacheVersion is part of every key; bump it when the Rate shape changes
// so stale entries are never read in the old format.
const cacheVersion = "v1"

type cacheEntry struct {
	rates    []Rate
	storedAt time.Time
}

// feedCache holds parsed daily feeds keyed by (version, date). Historical
// feed data is immutable once published, so a long fixed TTL is safe.
// Only successful fetches are stored, including legitimately empty days.
type feedCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newFeedCache(ttl time.Duration) *feedCache {
	return &feedCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func cacheKey(date time.Time) string {
	return fmt.Sprintf("cbr:rates:%s:%s", cacheVersion, date.Format("2006-01-02"))
}

func (c *feedCache) get(key string) ([]Rate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.rates, true
}

func (c *feedCache) put(key string, rates []Rate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{rates: rates, storedAt: time.Now()}
}
