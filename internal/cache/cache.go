// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

// Package cache provides a thread-safe in-memory TTL cache.
//
// Expired entries are dropped lazily on Get and in bulk by the cleanup loop,
// which runs as a supervised service (see Serve).
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps string keys to values of type V with a default time-to-live.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	onEvict func(key string, value V)
	stats   Stats
}

// Stats tracks cache efficiency.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Option customizes a Cache.
type Option[V any] func(*Cache[V])

// WithEvictCallback runs fn for every entry removed by expiry or Delete.
// fn is called with the cache lock held and must not call back into the cache.
func WithEvictCallback[V any](fn func(key string, value V)) Option[V] {
	return func(c *Cache[V]) { c.onEvict = fn }
}

// WithClock overrides time.Now, for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a cache whose entries live for ttl. A ttl of zero disables
// caching: Set becomes a no-op and Get always misses.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		c.record(func(s *Stats) { s.Misses++ })
		return zero, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, still := c.entries[key]; still && c.now().After(cur.expiresAt) {
			c.evictLocked(key, cur.value)
		}
		c.mu.Unlock()
		c.record(func(s *Stats) { s.Misses++ })
		return zero, false
	}

	c.record(func(s *Stats) { s.Hits++ })
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for ttl.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Touch extends the life of key by the default TTL. It reports whether the
// key was present and unexpired.
func (c *Cache[V]) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return false
	}
	e.expiresAt = c.now().Add(c.ttl)
	c.entries[key] = e
	return true
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.evictLocked(key, e.value)
	}
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix and returns how many
// entries were dropped.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.evictLocked(key, e.value)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the counters.
func (c *Cache[V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Cleanup drops every expired entry and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.evictLocked(key, e.value)
			n++
		}
	}
	c.stats.LastCleanup = now
	return n
}

// Serve runs Cleanup every interval until ctx is canceled. It implements
// suture.Service when wrapped by CleanupService.
func (c *Cache[V]) Serve(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

func (c *Cache[V]) evictLocked(key string, value V) {
	delete(c.entries, key)
	c.stats.Evictions++
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

func (c *Cache[V]) record(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

// Cleaner is the subset of Cache needed by CleanupService.
type Cleaner interface {
	Serve(ctx context.Context, interval time.Duration) error
}

// CleanupService adapts a cache's cleanup loop to suture.Service.
type CleanupService struct {
	name     string
	cache    Cleaner
	interval time.Duration
}

// NewCleanupService returns a supervised cleanup loop for cache.
func NewCleanupService(name string, cache Cleaner, interval time.Duration) *CleanupService {
	return &CleanupService{name: name, cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (s *CleanupService) Serve(ctx context.Context) error {
	return s.cache.Serve(ctx, s.interval)
}

// String implements fmt.Stringer for supervisor logging.
func (s *CleanupService) String() string {
	return s.name + "-cache-cleanup"
}
