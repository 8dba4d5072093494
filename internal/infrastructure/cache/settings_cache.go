package cache

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSettingsTTL is used when a cache is built with a non-positive TTL
const DefaultSettingsTTL = 10 * time.Minute

// CacheStats holds hit and miss counters
type CacheStats struct {
	Hits   int64
	Misses int64
}

// InMemorySettingsCache keeps the merged flat settings in process memory
type InMemorySettingsCache struct {
	mu        sync.RWMutex
	values    map[string]string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemorySettingsCache creates a new in-memory settings cache
func NewInMemorySettingsCache(ttl time.Duration) *InMemorySettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &InMemorySettingsCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached settings; ok is false on a miss or after expiry
func (c *InMemorySettingsCache) Get(_ context.Context) (map[string]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.values == nil || !c.now().Before(c.expiresAt) {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return maps.Clone(c.values), true, nil
}

// Set replaces the cached settings
func (c *InMemorySettingsCache) Set(_ context.Context, values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = maps.Clone(values)
	if c.values == nil {
		c.values = map[string]string{}
	}
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached settings
func (c *InMemorySettingsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = nil
	c.expiresAt = time.Time{}
	return nil
}

// Stats returns the hit and miss counters
func (c *InMemorySettingsCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
