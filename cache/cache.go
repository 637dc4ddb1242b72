// Package cache keeps recently fetched pages in memory so webhook
// redeliveries and repeated shares of a hot link do not refetch the page.
package cache

import (
	"sync"
	"time"

	"github.com/kri-ruj/linksaver/models"
)

// entry holds a cached fetch result with its creation timestamp.
type entry struct {
	result    *models.FetchResult
	createdAt time.Time
}

// Cache is an in-memory fetch-result cache keyed by URL fingerprint.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache bounded to maxEntries. A background goroutine sweeps
// expired entries every 5 minutes.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.cleanupLoop()
	return c
}

// Get returns the cached result for a fingerprint if it is younger than the
// TTL. Degraded results are never served from cache — a transient fetch
// failure should not poison subsequent saves.
func (c *Cache) Get(fingerprint string) (*models.FetchResult, bool) {
	c.mu.RLock()
	e, ok := c.store[fingerprint]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.result, true
}

// Set stores a fetch result. Degraded results are dropped. If the cache is
// at capacity, a random entry is evicted to make room (map iteration is
// random in Go).
func (c *Cache) Set(fingerprint string, result *models.FetchResult) {
	if result == nil || result.Degraded {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[fingerprint] = &entry{
		result:    result,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
