// Package cache provides a bounded in-memory TTL cache with creation-order
// eviction, prefix invalidation, hit/miss statistics, and namespaced views
// for per-tenant isolation.
package cache
