// Package cache provides an in-memory TTL cache for idempotent provider
// responses. It is shared across unrelated call paths and safe for
// concurrent use.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is applied when Set is called with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

// Stats is a point-in-time view of the cache for the status surface.
type Stats struct {
	Size int `json:"size"`
}

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a key→value store with per-entry expiry. Expired entries are
// lazily purged on read.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		nowFunc: time.Now,
	}
}

// Set stores value under key with the given TTL. A non-positive TTL uses
// DefaultTTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	c.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Get returns the value for key. An entry whose expiry has passed is treated
// as absent and removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.nowFunc().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Stats sweeps expired entries and returns the live entry count.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	return Stats{Size: len(c.entries)}
}

// Key derives a deterministic cache key from every semantically relevant
// request input. Distinct logical requests never collide and identical
// requests always produce the same key.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}
