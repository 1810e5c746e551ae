// Package cache provides a generic in-memory TTL cache used for
// customer context snapshots.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL. Entries are replaced
// atomically as whole records, never mutated in place, so concurrent readers
// see either the old snapshot or the new one.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
}

// New creates an in-memory cache whose entries live for ttl. A background
// sweeper evicts expired entries so the map doesn't grow unbounded.
func New[T any](ttl time.Duration) *InMemory[T] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the live value for key. Expired entries read as missing
// even before the sweeper removes them.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result. The second return reports whether the value came from cache.
// A compute error is returned as-is and nothing is cached.
func (c *InMemory[T]) GetOrCompute(key string, compute func() (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := compute()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

// Set stores value under key with a fresh TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = entry[T]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for k, e := range c.items {
			if now.After(e.expiresAt) {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
