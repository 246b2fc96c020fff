package limitscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/projectquota/pkg/cache"
)

// Backend stores encoded snapshots. A miss is (nil, false, nil).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend stores snapshots in Redis, shared by every instance.
func NewRedisBackend(client redis.UniversalClient) Backend {
	if client == nil {
		panic("limitscache: redis client is required")
	}
	return redisBackend{client: client}
}

func (b redisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b redisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b redisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

type memoryBackend struct {
	lru *cache.TTLCache[string, []byte]
}

// NewMemoryBackend keeps snapshots in process. Each instance has its own
// view, so invalidation only reaches consumptions served by this process.
func NewMemoryBackend(capacity int, ttl time.Duration) Backend {
	return memoryBackend{lru: cache.NewTTLCache[string, []byte](capacity, ttl)}
}

func (b memoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.lru.Get(key)
	return v, ok, nil
}

// Set ignores ttl; entries use the backend's own TTL.
func (b memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.lru.Set(key, value)
	return nil
}

func (b memoryBackend) Delete(_ context.Context, key string) error {
	b.lru.Delete(key)
	return nil
}
