package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for expiry tests
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
	store := NewInMemoryIdempotencyStore()
	clock := &fakeClock{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	store.now = clock.Now
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		store, _ := newTestStore(t)

		isNew, err := store.MarkProcessed(ctx, "orderCreated:o1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "orderCreated:o1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("expired marks can be taken again", func(t *testing.T) {
		store, clock := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		clock.Advance(time.Minute)

		isNew, err := store.MarkProcessed(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("unmark releases the key", func(t *testing.T) {
		store, _ := newTestStore(t)

		_, err := store.MarkProcessed(ctx, "k", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Unmark(ctx, "k"))

		processed, err := store.IsProcessed(ctx, "k")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err := store.MarkProcessed(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "k", 10*time.Second)
	require.NoError(t, err)
	processed, _ = store.IsProcessed(ctx, "k")
	assert.True(t, processed)

	clock.Advance(11 * time.Second)
	processed, _ = store.IsProcessed(ctx, "k")
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)

	store.MarkProcessed(ctx, "short-1", time.Second)
	store.MarkProcessed(ctx, "short-2", time.Second)
	store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 3, store.Size())

	clock.Advance(2 * time.Second)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const workers = 100

	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			results <- err == nil && isNew
		}()
	}
	wg.Wait()
	close(results)

	newCount := 0
	for r := range results {
		if r {
			newCount++
		}
	}
	assert.Equal(t, 1, newCount, "exactly one goroutine should mark the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
