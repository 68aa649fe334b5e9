package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is a process-local cache used when Redis is not configured.
// Expired entries are evicted lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && c.nowFunc().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = c.nowFunc().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: expires}
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}
