// Package cache provides a small in-process TTL cache shared by the market
// data client and the exposure service.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// DefaultSweepInterval is how often Set drops expired entries.
const DefaultSweepInterval = time.Minute

// TTL is a concurrency-safe map whose entries expire after a per-entry
// time-to-live. Expired entries are dropped on read, by Purge, and by a
// sweep that Set runs at most once per sweep interval.
type TTL[K comparable, V any] struct {
	mu        sync.RWMutex
	items     map[K]entry[V]
	now       func() time.Time
	sweep     time.Duration
	lastSweep time.Time
}

// New returns an empty cache.
func New[K comparable, V any]() *TTL[K, V] {
	return &TTL[K, V]{items: make(map[K]entry[V]), now: time.Now, sweep: DefaultSweepInterval}
}

// Get returns the cached value for key if it has not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expires.Equal(e.expires) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl is a no-op.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSweep.IsZero() {
		c.lastSweep = now
	} else if now.Sub(c.lastSweep) >= c.sweep {
		c.purgeLocked(now)
		c.lastSweep = now
	}
	c.items[key] = entry[V]{value: value, expires: now.Add(ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge removes every expired entry and returns how many were dropped.
func (c *TTL[K, V]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

func (c *TTL[K, V]) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
			n++
		}
	}
	return n
}
