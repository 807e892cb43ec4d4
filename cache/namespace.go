package cache

import (
	"strings"
	"time"
)

// Separator joins namespace and key parts.
const Separator = ":"

// Namespace is a prefixed view of a shared Cache. Services hold one per
// (kind, tenant) pair so their entries can be invalidated in bulk without
// touching any other tenant.
type Namespace struct {
	cache *Cache
	name  string
	ttl   time.Duration
}

// NewNamespace creates a namespaced view. ttl<=0 uses the cache default for
// entries set through this view.
func NewNamespace(c *Cache, name string, ttl time.Duration) *Namespace {
	return &Namespace{cache: c, name: name, ttl: ttl}
}

// Name returns the namespace prefix (without trailing separator).
func (n *Namespace) Name() string {
	return n.name
}

// Key builds a fully qualified cache key from parts.
func (n *Namespace) Key(parts ...string) string {
	return n.name + Separator + strings.Join(parts, Separator)
}

// Get reads the entry for the joined key parts.
func (n *Namespace) Get(parts ...string) (any, bool) {
	return n.cache.Get(n.Key(parts...))
}

// Set stores value under the joined key parts with the namespace TTL.
func (n *Namespace) Set(value any, parts ...string) {
	n.cache.SetTTL(n.Key(parts...), value, n.ttl)
}

// SetTTL stores value with an explicit TTL override.
func (n *Namespace) SetTTL(value any, ttl time.Duration, parts ...string) {
	n.cache.SetTTL(n.Key(parts...), value, ttl)
}

// Invalidate removes one entry.
func (n *Namespace) Invalidate(parts ...string) bool {
	return n.cache.Invalidate(n.Key(parts...))
}

// InvalidateOp removes every entry stored under one operation name and
// returns the count.
func (n *Namespace) InvalidateOp(op string) int {
	return n.cache.InvalidatePrefix(n.Key(op) + Separator)
}

// InvalidateAll removes every entry in this namespace and returns the
// count.
func (n *Namespace) InvalidateAll() int {
	return n.cache.InvalidatePrefix(n.name + Separator)
}

// Stats exposes the underlying cache statistics.
func (n *Namespace) Stats() Stats {
	return n.cache.Stats()
}
