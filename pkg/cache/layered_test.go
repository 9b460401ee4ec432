package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/deepscan/pkg/cache"
)

func testKey(path string) cache.Key {
	return cache.NewKey(path, []byte(path), "test")
}

func TestLayeredMemoryHitMiss(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10})
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey("a.rs")

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, key, "value-a", 8))

	val, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "value-a", val)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLayeredDiskFallbackPromotesToMemory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10, DiskDir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey("b.rs")

	require.NoError(t, c.Put(ctx, key, "on-disk", 7))

	// A fresh cache backed by the same directory has nothing in memory,
	// so the first Get must come from disk and repopulate memory.
	c2, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10, DiskDir: dir})
	require.NoError(t, err)

	val, ok := c2.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "on-disk", val)

	val, ok = c2.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "on-disk", val)
}

func TestLayeredGetOrComputeCoalescesConcurrentCallers(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[int](cache.LayeredOptions{MaxEntries: 10})
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey("c.rs")

	var calls int64

	compute := func(context.Context) (int, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(10 * time.Millisecond)

		return 42, nil
	}

	results := make(chan int, 8)

	for i := 0; i < 8; i++ {
		go func() {
			v, err := c.GetOrCompute(ctx, key, 8, compute)
			require.NoError(t, err)
			results <- v
		}()
	}

	for i := 0; i < 8; i++ {
		assert.Equal(t, 42, <-results)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestLayeredStrategyOffline(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[int](cache.LayeredOptions{MaxEntries: 10})
	require.NoError(t, err)

	ctx := cache.WithStrategy(context.Background(), cache.StrategyOffline)
	key := testKey("d.rs")

	_, err = c.GetOrCompute(ctx, key, 8, func(context.Context) (int, error) {
		t.Fatal("compute must not run under StrategyOffline on a miss")

		return 0, nil
	})
	assert.ErrorIs(t, err, cache.ErrOffline)
}

func TestLayeredStrategyForceRefreshBypassesPopulatedEntry(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[int](cache.LayeredOptions{MaxEntries: 10})
	require.NoError(t, err)

	key := testKey("e.rs")
	require.NoError(t, c.Put(context.Background(), key, 1, 8))

	ctx := cache.WithStrategy(context.Background(), cache.StrategyForceRefresh)

	var calls int

	v, err := c.GetOrCompute(ctx, key, 8, func(context.Context) (int, error) {
		calls++

		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, calls)
}

func TestLayeredTTLExpiry(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10, TTL: time.Millisecond})
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey("f.rs")

	require.NoError(t, c.Put(ctx, key, "stale", 5))

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestLayeredInvalidatePrefix(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, testKey("src/mod/a.rs"), "a", 1))
	require.NoError(t, c.Put(ctx, testKey("src/mod/b.rs"), "b", 1))
	require.NoError(t, c.Put(ctx, testKey("src/other.rs"), "c", 1))

	removed := c.InvalidatePrefix("src/mod")
	assert.Equal(t, 2, removed)

	_, ok := c.Get(ctx, testKey("src/mod/a.rs"))
	assert.False(t, ok)

	_, ok = c.Get(ctx, testKey("src/other.rs"))
	assert.True(t, ok)
}

func TestLayeredEvictsUnderMaxEntries(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 2})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, c.Put(ctx, testKey("g1.rs"), "1", 1))
	require.NoError(t, c.Put(ctx, testKey("g2.rs"), "2", 1))
	require.NoError(t, c.Put(ctx, testKey("g3.rs"), "3", 1))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestLayeredEvictsUnderMaxBytes(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxBytes: 10})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, c.Put(ctx, testKey("big1.rs"), "1", 6))
	require.NoError(t, c.Put(ctx, testKey("big2.rs"), "2", 6))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.LessOrEqual(t, stats.TotalBytes, int64(10))
}

func TestLayeredDiskPresenceFilterSurvivesRemoveAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := cache.NewLayered[string](cache.LayeredOptions{MaxEntries: 10, DiskDir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey("h.rs")

	require.NoError(t, c.Put(ctx, key, "gone-soon", 9))
	c.RemoveAll(key)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestNewKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	content := []byte("package main")
	k1 := cache.NewKey("main.go", content, "ast")
	k2 := cache.NewKey("main.go", content, "ast")

	assert.Equal(t, k1, k2)
}
