package cache

import (
	"context"
	"sync"
	"time"
)

// entry pairs a cached value with its expiry bookkeeping.
type entry[T any] struct {
	data      T
	expiresAt time.Time
	createdAt time.Time
}

// Stats is a point-in-time snapshot of cache effectiveness, exposed for
// observability only.
type Stats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a best-effort in-process TTL cache. It is never a source of truth:
// entries expire lazily on read, and everything is lost on process restart.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	hits    int64
	misses  int64

	now func() time.Time
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the value for key. A key that was never set and a key whose
// entry expired both count as a miss; the expired entry is removed as a side
// effect.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return zero, false
	}

	c.hits++
	return e.data, true
}

func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{
		data:      value,
		expiresAt: now.Add(ttl),
		createdAt: now,
	}
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}

func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// StartSweep runs a periodic eviction of expired entries until ctx is done.
// Lazy eviction on Get already keeps the cache correct; the sweep only bounds
// memory for keys that are never read again.
func (c *Cache[T]) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evictExpired()
			}
		}
	}()
}

func (c *Cache[T]) evictExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
