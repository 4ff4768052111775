// Package memcache is the bounded in-process read-through cache sitting in
// front of the two-tier file cache (spec.md §3 [DOMAIN+]). It never changes
// read precedence; it only saves a disk round trip for keys with no
// watcher churn.
package memcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/confhub/acm-client-go/internal/telemetry"
)

// Entry is a cached value plus the fingerprint it was read with, so callers
// can tell whether an entry needs evicting when the pulling engine reports
// a new fingerprint.
type Entry struct {
	Content     string
	Fingerprint string
}

// Cache is a fixed-capacity LRU keyed by the composite key string.
type Cache struct {
	lru     *lru.Cache[string, Entry]
	metrics *telemetry.Metrics
}

// New builds a Cache with the given capacity. size <= 0 defaults to 2048,
// matching the MemCacheSize option default.
func New(size int, metrics *telemetry.Metrics) *Cache {
	if size <= 0 {
		size = 2048
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		// Only returns an error for size <= 0, which is normalized above.
		panic(err)
	}
	return &Cache{lru: c, metrics: metrics}
}

// Get returns the cached entry for key, if present.
func (c *Cache) Get(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.lru.Get(key)
	if ok {
		c.metrics.RecordCacheLookup("memcache", "hit")
	} else {
		c.metrics.RecordCacheLookup("memcache", "miss")
	}
	return e, ok
}

// Set populates or overwrites key's cached entry.
func (c *Cache) Set(key string, entry Entry) {
	if c == nil {
		return
	}
	c.lru.Add(key, entry)
}

// Invalidate drops key's cached entry, if any.
func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}
	c.lru.Remove(key)
}
