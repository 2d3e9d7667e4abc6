package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeClock is advanced by hand so expiry is deterministic
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
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(time.Hour)
	store.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	claimed, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim of a live key")

	claimed, err = store.MarkProcessed(ctx, "key-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed, "keys are independent")

	clock.Advance(time.Minute)
	claimed, err = store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed, "expired key can be claimed again")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "key", 10*time.Second)
	require.NoError(t, err)
	processed, err = store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(11 * time.Second)
	processed, err = store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", time.Second)
	_, _ = store.MarkProcessed(ctx, "short-2", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 3, store.Len())

	clock.Advance(2 * time.Second)
	store.sweep()

	assert.Equal(t, 1, store.Len())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkProcessed(ctx, "same-key", time.Hour); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseStopsSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := NewInMemoryIdempotencyStore(time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
