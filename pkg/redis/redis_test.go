package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := APIRateLimit("127.0.0.1", 30)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 30, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = cache.GetRaw(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabledCallsThrough(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var got map[string]int
	for i := 0; i < 2; i++ {
		err := cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
			calls++
			return map[string]int{"funds": 3}, nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, calls, "no caching without redis")
	assert.Equal(t, map[string]int{"funds": 3}, got)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"response key", ResponseKey(7, "abcdef0123456789", "/api/v1/funds/1/risk", "start=2020-01-31"), "resp:r7:abcdef012345:/api/v1/funds/1/risk?start=2020-01-31"},
		{"short hash", ResponseKey(1, "abc", "/x", ""), "resp:r1:abc:/x?"},
		{"fund key", FundKey(3, 42), "fund:r3:42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

// Integration test (requires a running Redis)
func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	ctx := context.Background()
	client, err := New(ctx, &config.Config{
		Redis: config.RedisConfig{Host: host, Port: port, Enabled: true},
	})
	require.NoError(t, err)
	defer client.Close()

	prefix := "fundscope-test-" + time.Now().Format("150405.000")

	cache := NewCache(client, prefix)
	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))
	var got map[string]int
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["a"])
	require.NoError(t, cache.Delete(ctx, "k"))

	limiter := NewRateLimiter(client, prefix)
	cfg := RateLimitConfig{Key: "burst", Limit: 2, Window: time.Minute}
	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}
