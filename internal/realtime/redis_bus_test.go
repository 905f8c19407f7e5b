package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisClient(t *testing.T) *redis.Client {
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
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisBus_RequiresClient(t *testing.T) {
	_, err := NewRedisBus(nil, "", testLogger())
	assert.Error(t, err)
}

func TestRedisBus_FansOutAcrossHubs(t *testing.T) {
	client := setupRedisClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	busA, err := NewRedisBus(client, "", testLogger())
	require.NoError(t, err)
	busB, err := NewRedisBus(client, "", testLogger())
	require.NoError(t, err)

	hubA := NewHub(testLogger())
	hubB := NewHub(testLogger())
	require.NoError(t, hubA.AttachBus(ctx, busA))
	require.NoError(t, hubB.AttachBus(ctx, busB))

	listener := hubB.Subscribe("s-1")

	hubA.Publish(domain.StatusEvent{SessionID: "s-1", Status: domain.StatusCompleted})

	event := recvEvent(t, listener.Outbound)
	assert.Equal(t, domain.StatusCompleted, event.Status)
}
