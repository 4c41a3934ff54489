package retrieve

import (
	"sync"
	"time"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 512
)

// cacheEntry wraps cached candidates with an expiration time.
type cacheEntry struct {
	candidates []Candidate
	expiresAt  time.Time
}

/*
Cache is a bounded TTL query->result cache. It exists to avoid redundant
provider and index calls for spans repeated within a session; it is not a
correctness mechanism, so eviction is simple.
*/
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
}

// NewCache builds a cache for callers that want to share one across
// retrievers or tune TTL from config.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func (cache *Cache) get(key string) ([]Candidate, bool) {
	cache.mu.RLock()
	entry, ok := cache.entries[key]
	cache.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		cache.mu.Lock()
		delete(cache.entries, key)
		cache.mu.Unlock()
		return nil, false
	}

	return entry.candidates, true
}

func (cache *Cache) put(key string, candidates []Candidate) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if len(cache.entries) >= cache.maxSize {
		cache.evictExpiredLocked()
	}

	// Still full after evicting expired entries: drop an arbitrary entry so
	// the bound holds. The cache is advisory, losing an entry is harmless.
	if len(cache.entries) >= cache.maxSize {
		for k := range cache.entries {
			delete(cache.entries, k)
			break
		}
	}

	cache.entries[key] = cacheEntry{
		candidates: candidates,
		expiresAt:  time.Now().Add(cache.ttl),
	}
}

func (cache *Cache) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range cache.entries {
		if now.After(entry.expiresAt) {
			delete(cache.entries, key)
		}
	}
}
