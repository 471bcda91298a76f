package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m4n1nh0/campus-map-app/navgraph"
)

const (
	DefaultRouteTTL = 60 * time.Minute
	routePrefix     = "route:"
)

// RouteCache stores computed paths per graph snapshot.
type RouteCache interface {
	Get(ctx context.Context, version, start, end string) (navgraph.Path, bool, error)
	Set(ctx context.Context, version, start, end string, path navgraph.Path) error
}

// RedisCache implements RouteCache using Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at redisURL.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// routeKey builds the cache key. Keys are scoped by graph version so a reload
// never serves paths from an older snapshot.
func routeKey(version, start, end string) string {
	return fmt.Sprintf("%s%s:%q:%q", routePrefix, version, start, end)
}

// Get implements RouteCache.
func (c *RedisCache) Get(ctx context.Context, version, start, end string) (navgraph.Path, bool, error) {
	data, err := c.client.Get(ctx, routeKey(version, start, end)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached route: %w", err)
	}

	var path navgraph.Path
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached route: %w", err)
	}
	if path == nil {
		path = navgraph.Path{}
	}
	return path, true, nil
}

// Set implements RouteCache.
func (c *RedisCache) Set(ctx context.Context, version, start, end string, path navgraph.Path) error {
	if path == nil {
		path = navgraph.Path{}
	}
	data, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}

	if err := c.client.Set(ctx, routeKey(version, start, end), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache route: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
