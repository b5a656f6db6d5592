// Package cache provides the in-process memoization cache and the Redis
// processed-message markers shared by concurrent pipelines.
package cache

import (
	"sync"
	"time"
)

type memoEntry struct {
	value     string
	expiresAt time.Time
}

// MemoCache is a bounded insertion-order cache with TTL, safe for concurrent
// read/insert from multiple in-flight pipelines. Capacity is fixed; the
// oldest entry is evicted when full.
type MemoCache struct {
	maxSize int
	ttl     time.Duration
	items   map[string]*memoEntry
	order   []string
	mu      sync.RWMutex
}

// NewMemoCache creates a bounded cache. A zero ttl disables expiry.
func NewMemoCache(maxSize int, ttl time.Duration) *MemoCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	c := &MemoCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*memoEntry, maxSize),
		order:   make([]string, 0, maxSize),
	}
	if ttl > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Get retrieves a value. Entry fields are copied out under the read lock;
// Set replaces entries rather than mutating them.
func (c *MemoCache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, exists := c.items[key]
	var value string
	var expiresAt time.Time
	if exists {
		value = entry.value
		expiresAt = entry.expiresAt
	}
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if c.ttl > 0 && time.Now().After(expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}
	return value, true
}

// Set stores a value, evicting the oldest entry at capacity.
func (c *MemoCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = &memoEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
		return
	}

	if len(c.items) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}

	c.items[key] = &memoEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.order = append(c.order, key)
}

// Len returns the current entry count.
func (c *MemoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *MemoCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	kept := c.order[:0]
	for _, key := range c.order {
		entry, ok := c.items[key]
		if !ok {
			continue
		}
		if now.After(entry.expiresAt) {
			delete(c.items, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
}
