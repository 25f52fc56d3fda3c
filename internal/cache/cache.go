// Package cache stores query read models (stats, detail views, opportunity
// lists) in Redis and invalidates them after mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReadModel is the port services use to cache and invalidate query results.
type ReadModel interface {
	// Get loads key into dest. The bool is false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Invalidate removes keys. A key ending in "*" removes every match.
	Invalidate(ctx context.Context, keys ...string) error

	// Version returns the invalidation counter of a scope.
	Version(ctx context.Context, scope string) (int64, error)
	// SetIfCurrent stores value only while scope is still at version. The
	// bool is false when an invalidation happened in between.
	SetIfCurrent(ctx context.Context, scope string, version int64, key string, value any) (bool, error)
	// Bump advances the counter of a scope.
	Bump(ctx context.Context, scope string) error
}

// Scope is the "<module>:<org>" prefix whose counter guards the tenant's keys.
func Scope(module string, organizationID uuid.UUID) string {
	return Key(module, organizationID)
}

func versionKey(scope string) string {
	return scope + ":version"
}

// setIfCurrent compares the scope counter and writes in one step, so a value
// loaded before a Bump is never written after it.
var setIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// Key builds "<module>:<org>:<part>:<part>...".
func Key(module string, organizationID uuid.UUID, parts ...string) string {
	segments := make([]string, 0, len(parts)+2)
	segments = append(segments, module, organizationID.String())
	segments = append(segments, parts...)
	return strings.Join(segments, ":")
}

// RedisCache is a ReadModel backed by Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedis creates a Redis read-model cache.
func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Connect parses a redis:// URL and verifies the connection.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A payload from an older shape is treated as a miss and dropped.
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Version(ctx context.Context, scope string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version %s: %w", scope, err)
	}
	return v, nil
}

func (c *RedisCache) SetIfCurrent(ctx context.Context, scope string, version int64, key string, value any) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache encode %s: %w", key, err)
	}
	stored, err := setIfCurrent.Run(ctx, c.client,
		[]string{versionKey(scope), key},
		strconv.FormatInt(version, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache set %s: %w", key, err)
	}
	return stored == 1, nil
}

func (c *RedisCache) Bump(ctx context.Context, scope string) error {
	if err := c.client.Incr(ctx, versionKey(scope)).Err(); err != nil {
		return fmt.Errorf("cache bump %s: %w", scope, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	exact := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, "*") {
			exact = append(exact, key)
			continue
		}
		matched, err := c.scan(ctx, key)
		if err != nil {
			return err
		}
		exact = append(exact, matched...)
	}
	if len(exact) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, exact...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	if c.log != nil {
		c.log.Debug("read models invalidated", "keys", len(exact))
	}
	return nil
}

func (c *RedisCache) scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		found  []string
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		found = append(found, keys...)
		cursor = next
		if cursor == 0 {
			return found, nil
		}
	}
}

// Noop never stores anything. Used when caching is disabled and in tests.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error         { return nil }
func (Noop) Invalidate(context.Context, ...string) error    { return nil }
func (Noop) Version(context.Context, string) (int64, error) { return 0, nil }
func (Noop) Bump(context.Context, string) error             { return nil }

func (Noop) SetIfCurrent(context.Context, string, int64, string, any) (bool, error) {
	return false, nil
}

var (
	_ ReadModel = (*RedisCache)(nil)
	_ ReadModel = Noop{}
)
