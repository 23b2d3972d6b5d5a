//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisIdempotencyStore(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr, KeyPrefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	isNew, err := store.MarkProcessed(ctx, "invoice-key", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "invoice-key", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "invoice-key")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "invoice-key"))
	processed, err = store.IsProcessed(ctx, "invoice-key")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_TTL(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.MarkProcessed(ctx, "short", 500*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		processed, err := store.IsProcessed(ctx, "short")
		return err == nil && !processed
	}, 3*time.Second, 100*time.Millisecond)
}

func TestRedisRunGuard_Claim(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	first := NewRedisRunGuard(store.Client(), "")
	second := NewRedisRunGuard(store.Client(), "")

	claimed, err := first.Claim(ctx, "nightly:2024-11-05", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = second.Claim(ctx, "nightly:2024-11-05", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "other instance already holds the run")

	claimed, err = second.Claim(ctx, "nightly:2024-11-06", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}
