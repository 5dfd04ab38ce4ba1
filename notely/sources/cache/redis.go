// Package cache keeps email -> user id lookups in redis so the session gate
// does not hit postgres on every request. User ids never change and users are
// never deleted, so entries only expire to bound memory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"notely/notely/config"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "notely:uid:"

type IdentityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdentityCache connects to redis. Callers should treat a nil cache as
// "no caching".
func NewIdentityCache(ctx context.Context, cfg config.Config) (*IdentityCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewIdentityCacheFromClient(rdb, 24*time.Hour), nil
}

func NewIdentityCacheFromClient(rdb *redis.Client, ttl time.Duration) *IdentityCache {
	return &IdentityCache{rdb: rdb, ttl: ttl}
}

func cacheKey(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// UserID returns the cached id, or found=false on a miss.
func (c *IdentityCache) UserID(ctx context.Context, email string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, cacheKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for %s: %w", email, err)
	}
	return id, true, nil
}

func (c *IdentityCache) SetUserID(ctx context.Context, email string, id int) error {
	return c.rdb.Set(ctx, cacheKey(email), id, c.ttl).Err()
}

func (c *IdentityCache) Close() error {
	return c.rdb.Close()
}
