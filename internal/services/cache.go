package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix   = "url:"
	cacheAbsoluteTTL = time.Hour
	cacheSlidingTTL  = 5 * time.Minute
)

// Cache is the read-through cache in front of the link store for
// code->URL lookups.
type Cache interface {
	Lookup(ctx context.Context, code string) (string, bool)
	Store(ctx context.Context, code, url string)
	Remove(ctx context.Context, code string)
}

// cacheEntry carries the absolute deadline alongside the URL so the sliding
// extension can be capped without a second round trip.
type cacheEntry struct {
	URL      string    `json:"url"`
	Deadline time.Time `json:"deadline"`
}

// RedirectCache is a redis cache with a sliding TTL under an absolute
// ceiling. Every operation fails open: a redis error is a miss, never a
// failure of the resolve path.
type RedirectCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedirectCache(rdb *redis.Client, logger *slog.Logger) *RedirectCache {
	return &RedirectCache{rdb: rdb, logger: logger}
}

func (c *RedirectCache) Lookup(ctx context.Context, code string) (string, bool) {
	if c.rdb == nil {
		return "", false
	}

	val, err := c.rdb.Get(ctx, cacheKeyPrefix+code).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache lookup failed", "code", code, "error", err)
		}
		return "", false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		c.logger.Debug("cache entry corrupt", "code", code, "error", err)
		return "", false
	}

	// Sliding extension, capped at the absolute deadline
	remaining := time.Until(entry.Deadline)
	if remaining <= 0 {
		c.rdb.Del(ctx, cacheKeyPrefix+code)
		return "", false
	}
	ttl := cacheSlidingTTL
	if remaining < ttl {
		ttl = remaining
	}
	if err := c.rdb.Expire(ctx, cacheKeyPrefix+code, ttl).Err(); err != nil {
		c.logger.Debug("cache ttl extension failed", "code", code, "error", err)
	}

	return entry.URL, true
}

func (c *RedirectCache) Store(ctx context.Context, code, url string) {
	if c.rdb == nil {
		return
	}

	entry := cacheEntry{URL: url, Deadline: time.Now().Add(cacheAbsoluteTTL)}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+code, data, cacheSlidingTTL).Err(); err != nil {
		c.logger.Debug("cache store failed", "code", code, "error", err)
	}
}

func (c *RedirectCache) Remove(ctx context.Context, code string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKeyPrefix+code).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "code", code, "error", err)
	}
}
