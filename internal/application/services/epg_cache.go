package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// EPGCache is a fixed-TTL cache for listing pages keyed by
// (channel, day, time segment). Expired entries are treated as misses but
// stay in the map until the next fetch overwrites them or Clear is called.
// The key space is small (channels x 8 days x 6 segments), so there is no
// size bound and no eviction.
type EPGCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	page       *domain.EPGPage
	insertedAt time.Time
}

// CacheStats describes the cache contents.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// NewEPGCache creates a cache with the given TTL.
func NewEPGCache(ttl time.Duration) *EPGCache {
	return &EPGCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(channelID string, day int, segment string) string {
	return fmt.Sprintf("%s_%d_%s", channelID, day, segment)
}

// Get returns the cached page for the key, or a miss if the entry is absent
// or older than the TTL.
func (c *EPGCache) Get(channelID string, day int, segment string) (*domain.EPGPage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(channelID, day, segment)]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		return nil, false
	}
	return entry.page, true
}

// Put stores a page, overwriting any previous entry for the key.
func (c *EPGCache) Put(channelID string, day int, segment string, page *domain.EPGPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(channelID, day, segment)] = &cacheEntry{
		page:       page,
		insertedAt: c.now(),
	}
}

// Clear empties the cache unconditionally.
func (c *EPGCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Stats returns the current size and sorted key list.
func (c *EPGCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return CacheStats{Size: len(keys), Keys: keys}
}
