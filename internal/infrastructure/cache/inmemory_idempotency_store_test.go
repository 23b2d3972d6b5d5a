package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by tests instead of sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := newInMemoryIdempotencyStore(time.Hour)
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

// ==================== MarkProcessed Tests ====================

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("new key", func(t *testing.T) {
		store, _ := newTestStore(t)

		isNew, err := store.MarkProcessed(ctx, "POST:/invoices:key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("repeated key", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "key-2", time.Hour)
		require.NoError(t, err)

		isNew, err := store.MarkProcessed(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("expired key can be recorded again", func(t *testing.T) {
		store, clock := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)

		isNew, err := store.MarkProcessed(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

// ==================== IsProcessed / Release Tests ====================

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, _ = store.MarkProcessed(ctx, "known", time.Minute)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(time.Minute)
	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.False(t, processed, "entry expires exactly at its ttl")
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, _ = store.MarkProcessed(ctx, "stock-move-execute", time.Hour)
	require.NoError(t, store.Release(ctx, "stock-move-execute"))

	isNew, err := store.MarkProcessed(ctx, "stock-move-execute", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	assert.NoError(t, store.Release(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	_, _ = store.MarkProcessed(ctx, "short-1", time.Second)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		newCount int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, "concurrent", time.Hour)
			if err == nil && isNew {
				mu.Lock()
				newCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, newCount)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

// ==================== Factory Tests ====================

func TestIdempotencyStoreFactory_RedisDisabled(t *testing.T) {
	factory := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})

	store, err := factory.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_UnreachableRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping dial test in short mode")
	}

	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(context.Background())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(false)).CreateStore(context.Background())
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
