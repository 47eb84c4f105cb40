package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps counters in Redis so limits hold across replicas.
type RedisBackend struct {
	client *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Count(ctx context.Context, key string) (int64, error) {
	n, err := b.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Incr seeds the key with its TTL and increments it in one MULTI/EXEC, so a
// counter never exists without an expiry.
func (b *RedisBackend) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var counter *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		counter = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return counter.Val(), nil
}

func (b *RedisBackend) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return b.client.Set(ctx, key, "1", ttl).Err()
}

func (b *RedisBackend) Marked(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
