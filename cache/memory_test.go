package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-commerce/logger"
	"github.com/saiset-co/sai-commerce/types"
)

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()

	c, err := NewMemoryCache(context.Background(), logger.NewZapWrapper(zap.NewNop()), &types.CacheConfig{})
	require.NoError(t, err)

	return c.(*MemoryCache)
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newTestMemoryCache(t)

	require.NoError(t, c.Set("key", []byte("value"), 0))

	value, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), value)
}

func TestMemoryCacheZeroTTLIsPersistent(t *testing.T) {
	c := newTestMemoryCache(t)

	require.NoError(t, c.Set("durable", []byte("value"), 0))

	entry := c.data["durable"]
	require.NotNil(t, entry)
	assert.True(t, entry.ExpiresAt.IsZero(), "entries without a TTL must not self-expire")
}

func TestMemoryCacheMiss(t *testing.T) {
	c := newTestMemoryCache(t)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestMemoryCacheEmptyKey(t *testing.T) {
	c := newTestMemoryCache(t)

	err := c.Set("", []byte("value"), 0)
	assert.ErrorIs(t, err, types.ErrCacheKeyEmpty)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := newTestMemoryCache(t)

	require.NoError(t, c.Set("ephemeral", []byte("value"), 30*time.Millisecond))

	_, ok := c.Get("ephemeral")
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Get("ephemeral")
	assert.False(t, ok, "expired entry must read as a miss without an explicit delete")
}

func TestMemoryCacheOverwriteOutlivesOldTimer(t *testing.T) {
	c := newTestMemoryCache(t)

	require.NoError(t, c.Set("key", []byte("short"), 20*time.Millisecond))
	require.NoError(t, c.Set("key", []byte("long"), time.Minute))

	time.Sleep(50 * time.Millisecond)

	value, ok := c.Get("key")
	assert.True(t, ok, "overwrite must not be evicted by the stale timer")
	assert.Equal(t, []byte("long"), value)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestMemoryCache(t)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Set("b", []byte("2"), 0))
	require.NoError(t, c.Set("c", []byte("3"), 0))

	require.NoError(t, c.Delete("a", "c", "never-existed"))

	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
	assert.False(t, c.Has("c"))
}

func TestMemoryCacheSweep(t *testing.T) {
	c := newTestMemoryCache(t)

	now := time.Now()
	c.data["expired-1"] = &types.CacheEntry{Key: "expired-1", ExpiresAt: now.Add(-time.Minute)}
	c.data["expired-2"] = &types.CacheEntry{Key: "expired-2", ExpiresAt: now.Add(-time.Second)}
	c.data["live"] = &types.CacheEntry{Key: "live", ExpiresAt: now.Add(time.Hour)}
	c.data["eternal"] = &types.CacheEntry{Key: "eternal"}

	removed := c.Sweep()

	assert.Equal(t, 2, removed)
	assert.True(t, c.Has("live"))
	assert.True(t, c.Has("eternal"))
	assert.False(t, c.Has("expired-1"))
	assert.False(t, c.Has("expired-2"))
}

func TestMemoryCacheLifecycle(t *testing.T) {
	c := newTestMemoryCache(t)

	assert.False(t, c.IsRunning())
	require.NoError(t, c.Start())
	assert.True(t, c.IsRunning())

	assert.ErrorIs(t, c.Start(), types.ErrServerAlreadyRunning)

	require.NoError(t, c.Stop())
	assert.False(t, c.IsRunning())
	assert.ErrorIs(t, c.Stop(), types.ErrServerNotRunning)
}
