package redis

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/config"
)

// newTestClient connects to REDIS_TEST_HOST:REDIS_TEST_PORT or skips
func newTestClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("REDIS_TEST_PORT")); err == nil {
		port = p
	}

	c, err := NewClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEmbeddingCache(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	cache := NewEmbeddingCache(client, "test-"+uuid.NewString(), time.Minute)

	vec, err := cache.Get(ctx, "how many bags")
	require.NoError(t, err)
	assert.Nil(t, vec)

	require.NoError(t, cache.Set(ctx, "how many bags", []float32{0.5, 0.25}))

	// keys ignore case and surrounding space
	vec, err = cache.Get(ctx, "  How many bags ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)

	deleted, err := cache.FlushAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))
}

func TestRateLimiter(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client, 2)
	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 10, 0, 30, 0, time.UTC) }
	key := "test-" + uuid.NewString()

	for i := 0; i < 2; i++ {
		allowed, _, reset, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, time.Date(2026, 1, 1, 10, 1, 0, 0, time.UTC), reset)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	// next window starts fresh
	limiter.now = func() time.Time { return time.Date(2026, 1, 1, 10, 1, 5, 0, time.UTC) }
	allowed, _, _, err = limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewClient(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
