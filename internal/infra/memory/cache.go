package memory

import (
	"context"
	"regexp"
	"sync"
	"time"
)

// Cache is an in-process TTL cache implementing app.Cache. Entries
// expire lazily at read time; invalidation matches keys against a
// regular expression, mirroring the Redis implementation.
type Cache struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewCache() *Cache {
	return &Cache{clock: time.Now, entries: make(map[string]cacheEntry)}
}

// WithClock is test-only for deterministic expiry.
func (c *Cache) WithClock(clock func() time.Time) *Cache {
	c.clock = clock
	return c
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(c.clock()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.clock().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) InvalidateByPattern(_ context.Context, pattern string) int {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}
