package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return mr
}

func TestTryLockIsExclusive(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	ok, err := TryLock(ctx, "lock:a", "owner-1", time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TryLock(ctx, "lock:a", "owner-2", time.Minute, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnLockOnlyByOwner(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	_, err := TryLock(ctx, "lock:b", "owner-1", time.Minute, 1)
	require.NoError(t, err)

	require.NoError(t, UnLock(ctx, "lock:b", "someone-else"))
	assert.True(t, mr.Exists("lock:b"))

	require.NoError(t, UnLock(ctx, "lock:b", "owner-1"))
	assert.False(t, mr.Exists("lock:b"))
}

func TestLockExpires(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	ok, err := TryLock(ctx, "lock:c", "owner-1", time.Second, 1)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = TryLock(ctx, "lock:c", "owner-2", time.Second, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetInt64(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	_, hit, err := GetInt64(ctx, "count:missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetWithExpiration(ctx, "count:x", 42, time.Minute))
	n, hit, err := GetInt64(ctx, "count:x")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(42), n)

	require.NoError(t, DeleteKey(ctx, "count:x"))
	_, hit, _ = GetInt64(ctx, "count:x")
	assert.False(t, hit)
}

func TestSetIfAbsent(t *testing.T) {
	setupMiniRedis(t)
	ctx := context.Background()

	ok, err := SetIfAbsent(ctx, "view:a:1", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SetIfAbsent(ctx, "view:a:1", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetIfVersionRejectsStaleWrite(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	version, err := GetVersion(ctx, "count:ver:a")
	require.NoError(t, err)
	assert.Equal(t, "0", version)

	require.NoError(t, BumpVersion(ctx, "count:ver:a"))
	ok, err := SetIfVersion(ctx, "count:a", "count:ver:a", version, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("count:a"))

	version, err = GetVersion(ctx, "count:ver:a")
	require.NoError(t, err)
	assert.Equal(t, "1", version)
	ok, err = SetIfVersion(ctx, "count:a", "count:ver:a", version, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	n, hit, err := GetInt64(ctx, "count:a")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(2), n)
	assert.Greater(t, mr.TTL("count:a"), time.Duration(0))
}
