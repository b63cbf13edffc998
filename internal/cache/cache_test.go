package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache needs a Redis server; REDIS_ADDR overrides localhost:6379.
func setupTestCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	c := NewRedisCache(client, "test:"+uuid.NewString()[:8]+":", ttl)
	if err := c.Ping(context.Background()); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

type entry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	var got []entry
	found, err := c.Get(ctx, "category:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []entry{{ID: 1, Name: "Color"}, {ID: 2, Name: "Size"}}
	require.NoError(t, c.Set(ctx, "category:1", want))

	found, err = c.Get(ctx, "category:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "category:1", "category:2"))
	found, err = c.Get(ctx, "category:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.Snapshot()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(2), stats.Deletes)
}

func TestRedisCache_Expires(t *testing.T) {
	c := setupTestCache(t, 200*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "category:7", entry{ID: 7}))
	time.Sleep(400 * time.Millisecond)

	var got entry
	found, err := c.Get(ctx, "category:7", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DecodeErrorIsReported(t *testing.T) {
	c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "category:3", "not a list"))

	var got []entry
	found, err := c.Get(ctx, "category:3", &got)
	assert.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, uint64(1), c.Snapshot().Errors)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	c := NewRedisCache(client, "test:", time.Minute)
	defer c.Close()

	var got entry
	found, err := c.Get(context.Background(), "category:1", &got)
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, c.Set(context.Background(), "category:1", entry{ID: 1}))
	assert.NoError(t, c.Delete(context.Background()), "no keys is a no-op")
}
