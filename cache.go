package main

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Flush(ctx context.Context) error
}

// RedisCache implements Cache on a Redis client. It counts every read and
// write command it issues; the counters back the cache statistics reported
// in debug output.
type RedisCache struct {
	client *redis.Client
	reads  atomic.Int64
	writes atomic.Int64
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	p, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.writes.Add(1)
	return c.client.Set(ctx, key, p, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	c.reads.Add(1)
	return c.client.Get(ctx, key).Result()
}

func (c *RedisCache) Flush(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c *RedisCache) CacheReads() int64 {
	return c.reads.Load()
}

func (c *RedisCache) CacheWrites() int64 {
	return c.writes.Load()
}
