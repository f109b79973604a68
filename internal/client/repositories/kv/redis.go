package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps credentials under "<prefix>:<key>" so several client
// processes on one machine (or one account on several machines) share a
// session.
type RedisBackend struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisBackend builds a backend on rdb. A zero ttl stores keys without
// expiry.
func NewRedisBackend(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "dreamwell"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (b *RedisBackend) key(k string) string {
	return b.prefix + ":" + k
}

func (b *RedisBackend) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}

	vals, err := b.rdb.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		result[keys[i]] = []byte(s)
	}
	return result, nil
}

func (b *RedisBackend) PutMany(ctx context.Context, values map[string][]byte) error {
	return b.put(ctx, values, b.ttl)
}

// PutPersistent is PutMany without the configured ttl.
func (b *RedisBackend) PutPersistent(ctx context.Context, values map[string][]byte) error {
	return b.put(ctx, values, 0)
}

func (b *RedisBackend) put(ctx context.Context, values map[string][]byte, ttl time.Duration) error {
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range values {
			p.Set(ctx, b.key(k), v, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set credentials: %w", err)
	}
	return nil
}

func (b *RedisBackend) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
