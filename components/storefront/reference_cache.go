package storefront

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

// ReferenceCache shares fetched reference lists between selectors that ask
// for the same resource with the same params.
type ReferenceCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cachedCollection
}

type cachedCollection struct {
	items   []Record
	expires time.Time
}

// NewReferenceCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewReferenceCache(ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedCollection),
	}
}

// GetOrFetch returns cached items for key or runs fetch and stores the result.
func (c *ReferenceCache) GetOrFetch(key string, fetch func() ([]Record, error)) ([]Record, error) {
	if items, ok := c.get(key); ok {
		return items, nil
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	c.set(key, items)
	return cloneRecords(items), nil
}

// Invalidate drops a cached entry.
func (c *ReferenceCache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *ReferenceCache) get(key string) ([]Record, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return nil, false
	}
	return cloneRecords(entry.items), true
}

func (c *ReferenceCache) set(key string, items []Record) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedCollection{
		items:   cloneRecords(items),
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// ReferenceKey returns a deterministic cache key for a resource and params.
func ReferenceKey(resource string, params Params) string {
	sum := sha1.Sum([]byte(resource + "?" + params.Key()))
	return hex.EncodeToString(sum[:])
}
