package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pharmaguard:session:"

// RedisStore is a Store backed by Redis, shared by every gateway replica.
type RedisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisStore connects to the Redis instance named by the session configuration.
func NewRedisStore(cfg domain.SessionConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, defaultTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, defaultTTL: defaultTTL}
}

// Client exposes the underlying client for components sharing the connection.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Put stores value with the given TTL, or the default TTL when ttl is zero.
func (r *RedisStore) Put(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, redisKeyPrefix+storageKey(sessionID, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session value: %w", err)
	}
	return nil
}

// Get returns the stored value.
func (r *RedisStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+storageKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session value: %w", err)
	}
	return val, true, nil
}

// Delete removes the value.
func (r *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+storageKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session value: %w", err)
	}
	return nil
}

// Ping checks connectivity, for health reporting.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
