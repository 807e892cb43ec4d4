package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/boardbridge/cache"
)

// CacheChecker reports pressure on the shared response cache. A full
// cache still works but evicts on every insert, so it degrades rather
// than fails.
type CacheChecker struct {
	cache *cache.Cache
}

// NewCacheChecker creates a checker over the shared cache.
func NewCacheChecker(c *cache.Cache) *CacheChecker {
	return &CacheChecker{cache: c}
}

func (c *CacheChecker) Name() string { return "cache" }

func (c *CacheChecker) Check(_ context.Context) Result {
	stats := c.cache.Stats()
	details := map[string]any{
		"size":      stats.Size,
		"max_size":  stats.MaxSize,
		"hit_rate":  stats.HitRate,
		"evictions": stats.Evictions,
	}

	if stats.MaxSize > 0 && stats.Size >= stats.MaxSize {
		return Degraded(fmt.Sprintf("cache full: %d/%d entries", stats.Size, stats.MaxSize)).
			WithDetails(details)
	}
	return Healthy(fmt.Sprintf("cache at %d/%d entries", stats.Size, stats.MaxSize)).
		WithDetails(details)
}
