package session

import (
	"context"
	"testing"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := NewRedisStore(domain.SessionConfig{
		RedisURL: "redis://" + endpoint,
		TTL:      time.Hour,
		PoolSize: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestRedisStore_Integration(t *testing.T) {
	store := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "s-1", ResultKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Save(ctx, store, "s-1", sampleResult(), time.Minute))

	restored, ok := Restore(ctx, store, "s-1", testLogger())
	require.True(t, ok)
	assert.Equal(t, domain.ClassificationCritical, restored.OverallRisk)

	ttl, err := store.Client().TTL(ctx, redisKeyPrefix+storageKey("s-1", ResultKey)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	require.NoError(t, store.Put(ctx, "s-1", ResultKey, []byte("garbage"), 0))
	_, ok = Restore(ctx, store, "s-1", testLogger())
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "s-1", ResultKey)
	require.NoError(t, err)
	assert.False(t, ok, "corrupted value must be removed")
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(domain.SessionConfig{RedisURL: "not-a-url://"})
	assert.Error(t, err)
}
