package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Config tunes a Cache. Zero values fall back to defaults in New.
type Config struct {
	// DefaultTTL applies to entries set without an explicit TTL.
	// Default: 5 minutes.
	DefaultTTL time.Duration

	// MaxSize bounds the number of entries. When full, inserting a new key
	// evicts the entry with the oldest creation time. Default: 1000.
	MaxSize int

	// SweepInterval is how often StartSweeper reclaims expired entries.
	// Expiry is always checked lazily on read, so the sweep is purely a
	// memory optimization. Default: 1 minute.
	SweepInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:    5 * time.Minute,
		MaxSize:       1000,
		SweepInterval: time.Minute,
	}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size          int     `json:"size"`
	MaxSize       int     `json:"max_size"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hit_rate_percent"`
	Evictions     int64   `json:"evictions"`
	Expirations   int64   `json:"expirations"`
	TotalRequests int64   `json:"total_requests"`
}

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
	seq       uint64 // insertion order, tie-breaker for eviction
	hits      int64
}

func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache is a bounded in-memory TTL store.
//
// Eviction is by creation time (FIFO), not last access: when the map is
// full and a new key arrives, the entry with the smallest createdAt goes
// first, regardless of how recently it was read. Callers depend on this
// ordering; do not change it to LRU.
//
// A stored nil value is a present entry: Get returns (nil, true) for it and
// (nil, false) only on miss or expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config
	seq     uint64

	hits        int64
	misses      int64
	evictions   int64
	expirations int64
}

// New creates a cache, applying defaults for zero config values.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Cache{
		entries: make(map[string]*entry),
		cfg:     cfg,
	}
}

// Get returns the value for key. Expiry is checked lazily: an expired entry
// is removed here and counted as both an expiration and a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		return nil, false
	}

	e.hits++
	c.hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, 0)
}

// SetTTL stores value with a per-entry TTL override; ttl<=0 uses the
// default. Inserting a new key into a full cache evicts the oldest entry.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.seq++
	c.entries[key] = &entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
		seq:       c.seq,
	}
}

// evictOldest removes the entry with the smallest creation time. Callers
// hold the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest *entry
	for key, e := range c.entries {
		if oldest == nil ||
			e.createdAt.Before(oldest.createdAt) ||
			(e.createdAt.Equal(oldest.createdAt) && e.seq < oldest.seq) {
			oldestKey, oldest = key, e
		}
	}
	if oldest == nil {
		return
	}
	delete(c.entries, oldestKey)
	c.evictions++
}

// Invalidate removes one entry; reports whether it existed.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed. Prefix match is the only bulk removal
// path; keys are never matched by substring.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SweepExpired removes all expired entries and returns how many were
// reclaimed. Not required for correctness; Get already checks expiry.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.expirations += int64(removed)
	return removed
}

// StartSweeper runs a periodic sweep until ctx is cancelled.
func (c *Cache) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.SweepExpired()
			}
		}
	}()
}

// Stats returns a snapshot of the aggregate counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Size:          len(c.entries),
		MaxSize:       c.cfg.MaxSize,
		Hits:          c.hits,
		Misses:        c.misses,
		HitRate:       rate,
		Evictions:     c.evictions,
		Expirations:   c.expirations,
		TotalRequests: total,
	}
}
