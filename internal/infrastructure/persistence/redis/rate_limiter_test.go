package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb), mr
}

func TestRateLimiterFixedWindow(t *testing.T) {
	client, mr := newTestClient(t)
	l := NewRateLimiter(client, 20, time.Minute, "ratelimit:chat:")
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ok, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}

	ok, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := mr.Get("ratelimit:chat:u1")
	require.NoError(t, err)
	assert.Equal(t, "20", val, "denied requests are not counted")
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:chat:u1"))

	ok, err = l.Allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Minute + time.Millisecond)
	ok, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	val, _ = mr.Get("ratelimit:chat:u1")
	assert.Equal(t, "1", val)
}

func TestRateLimiterPrefixesAreIndependent(t *testing.T) {
	client, mr := newTestClient(t)
	chat := NewRateLimiter(client, 1, time.Minute, "rl:chat:")
	other := NewRateLimiter(client, 1, time.Minute, "rl:other:")
	ctx := context.Background()

	ok, _ := chat.Allow(ctx, "u1")
	assert.True(t, ok)
	ok, _ = chat.Allow(ctx, "u1")
	assert.False(t, ok)

	ok, err := other.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("rl:chat:u1"))
	assert.True(t, mr.Exists("rl:other:u1"))
}

func TestRateLimiterStoreError(t *testing.T) {
	client, mr := newTestClient(t)
	l := NewRateLimiter(client, 20, time.Minute, "rl:")

	mr.Close()
	_, err := l.Allow(context.Background(), "u1")
	assert.Error(t, err)
}

func TestPaymentLedger(t *testing.T) {
	client, mr := newTestClient(t)
	ledger := NewPaymentLedger(client, time.Hour)
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "pay_1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Claim(ctx, "pay_1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	owner, _ := mr.Get("payment:processed:pay_1")
	assert.Equal(t, "u1", owner)

	require.NoError(t, ledger.Forget(ctx, "pay_1"))
	ok, err = ledger.Claim(ctx, "pay_1", "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHealthCheck(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.HealthCheck(context.Background()))
}
