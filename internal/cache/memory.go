package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/valuescreen/pkg/logger"
)

// MemoryCache is a process-local TTL cache used when Redis is disabled.
// Values are stored JSON-encoded so callers see the same semantics as pkg/redis.Cache.
// ⭐ SSOT: 인메모리 캐싱은 이 구조체에서만
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	logger  *logger.Logger
}

type entry struct {
	data    []byte
	expires time.Time // zero = no expiry
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  log,
	}
}

// Get decodes the cached value into dest. Missing or expired keys return false.
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || c.expired(e) {
		return false, nil
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set stores value for ttl (ttl <= 0 never expires)
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	e := entry{data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// CleanExpired removes expired entries
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned expired cache entries")
	}

	return count
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TotalCount: len(c.entries)}
	for _, e := range c.entries {
		if c.expired(e) {
			stats.ExpiredCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.ExpiredCount

	return stats
}

func (c *MemoryCache) expired(e entry) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount   int `json:"total_count"`
	FreshCount   int `json:"fresh_count"`
	ExpiredCount int `json:"expired_count"`
}
