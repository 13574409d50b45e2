package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/content-hash-registry/interfaces"
)

// Redis key prefix for registry state
const redisKeyPrefix = "chr:"

// RedisBackend implements a storage backend on a Redis server.
// Batches are committed in a single MULTI/EXEC transaction.
type RedisBackend struct {
	client      *redis.Client
	log         *slog.Logger
	locationURI string
}

// NewRedisBackend creates a backend from a redis:// or rediss:// URL.
func NewRedisBackend(url string, log *slog.Logger) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	return NewRedisBackendFromClient(redis.NewClient(opts), redactURL(url), log), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, locationURI string, log *slog.Logger) *RedisBackend {
	return &RedisBackend{
		client:      client,
		log:         log,
		locationURI: locationURI,
	}
}

func (b *RedisBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	value, err := b.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return value, nil
}

func (b *RedisBackend) Put(ctx context.Context, key []byte, value []byte) error {
	if err := b.client.Set(ctx, redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// NewBatch returns a batch executed as one MULTI/EXEC transaction.
func (b *RedisBackend) NewBatch() interfaces.Batch {
	return &redisBatch{client: b.client}
}

// Available pings the server.
func (b *RedisBackend) Available(ctx context.Context) bool {
	if err := b.client.Ping(ctx).Err(); err != nil {
		b.log.Debug("Redis backend unavailable", "err", err)
		return false
	}
	return true
}

func (b *RedisBackend) Name() string {
	return fmt.Sprintf("redis-%s", b.client.Options().Addr)
}

func (b *RedisBackend) LocationURI() string {
	return b.locationURI
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

type redisBatch struct {
	client *redis.Client
	keys   []string
	values [][]byte
}

func (rb *redisBatch) Put(key []byte, value []byte) error {
	rb.keys = append(rb.keys, redisKey(key))
	rb.values = append(rb.values, append([]byte(nil), value...))
	return nil
}

func (rb *redisBatch) Write(ctx context.Context) error {
	_, err := rb.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range rb.keys {
			pipe.Set(ctx, k, rb.values[i], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

func redisKey(key []byte) string {
	return redisKeyPrefix + string(key)
}
