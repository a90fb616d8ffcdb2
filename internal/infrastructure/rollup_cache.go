package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"marketingops/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps encoded dashboards in Redis. Keys embed a generation
// counter; Invalidate bumps it so older entries are never read again and
// expire through their TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *logger.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// NewRedisClient connects and pings so a bad address fails at startup.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) entryKey(gen int64, key string) string {
	return c.prefix + ":" + strconv.FormatInt(gen, 10) + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return data, gen, true, nil
}

// setIfCurrent writes the entry only when the generation key still holds
// ARGV[1]. Returns 1 when written.
var setIfCurrent = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

// Set stores value under generation. It is a no-op once Invalidate has moved
// the generation on.
func (c *RedisCache) Set(ctx context.Context, key string, generation int64, value []byte) error {
	keys := []string{c.generationKey(), c.entryKey(generation, key)}
	written, err := setIfCurrent.Run(ctx, c.client, keys, generation, value, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if written == 0 {
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"key":        key,
			"generation": generation,
		}).Debug("Skipped stale rollup cache write")
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("bumping cache generation: %w", err)
	}
	c.logger.WithContext(ctx).WithField("generation", gen).Debug("Invalidated rollup cache")
	return nil
}

// NoopCache is used when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	return nil, 0, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, generation int64, value []byte) error {
	return nil
}

func (NoopCache) Invalidate(ctx context.Context) error { return nil }
