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

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLocker_SecondAcquireFailsUntilRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "outbox", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := locker.Acquire(ctx, "outbox", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second, "lock is held")

	require.NoError(t, first.Release(ctx))

	third, err := locker.Acquire(ctx, "outbox", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestLocker_ReleaseDoesNotStealForeignLease(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "outbox", time.Second)
	require.NoError(t, err)
	require.NotNil(t, stale)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, "outbox", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists(lockPrefix+"outbox"), "fresh lease must survive release of the expired one")
}

func TestLease_ExtendKeepsOwnedLockAlive(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "outbox", time.Second)
	require.NoError(t, err)
	require.NotNil(t, lease)

	mr.FastForward(800 * time.Millisecond)
	ok, err := lease.Extend(ctx, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(800 * time.Millisecond)
	other, err := locker.Acquire(ctx, "outbox", time.Second)
	require.NoError(t, err)
	assert.Nil(t, other, "extended lease is still held")
}

func TestLease_ExtendFailsAfterTakeover(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "outbox", time.Second)
	require.NoError(t, err)
	require.NotNil(t, lease)

	mr.FastForward(2 * time.Second)
	other, err := locker.Acquire(ctx, "outbox", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, other)

	ok, err := lease.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, mr.TTL("lock:outbox"), 50*time.Second, "takeover ttl untouched")

	// Releasing the stale lease leaves the new holder alone.
	require.NoError(t, lease.Release(ctx))
	assert.True(t, mr.Exists("lock:outbox"))
}
