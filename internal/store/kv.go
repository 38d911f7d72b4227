package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV is the small cache surface the services use.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisKV struct {
	c *redis.Client
}

var _ KV = (*RedisKV)(nil)

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

// NoopKV is used when Redis is disabled. Every Get misses.
type NoopKV struct{}

var _ KV = NoopKV{}

func (NoopKV) Get(context.Context, string) (string, error)                { return "", ErrMiss }
func (NoopKV) Set(context.Context, string, string, time.Duration) error { return nil }
func (NoopKV) Del(context.Context, string) error                        { return nil }

// LatestReadingKey is where the most recent reading of a trip is cached.
func LatestReadingKey(tripID string) string {
	return "risk:trip:" + tripID + ":latest"
}
