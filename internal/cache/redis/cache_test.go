package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/repository"
)

const testPrefix = "test:"

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache_SessionLifecycle(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	c := NewCache(client, testPrefix)

	_, err := c.Get(ctx, "session:missing")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "session:1", []byte(`{"id":"1"}`), time.Minute))
	v, err := c.Get(ctx, "session:1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1"}`, string(v))

	// Keys land under the configured prefix.
	require.True(t, mr.Exists(testPrefix+"session:1"))
	require.Equal(t, time.Minute, mr.TTL(testPrefix+"session:1"))

	mr.FastForward(2 * time.Minute)
	ok, err := c.Exists(ctx, "session:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_DeleteAndNoExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	c := NewCache(client, testPrefix)

	require.NoError(t, c.Set(ctx, "login_attempts:a@example.com", []byte(`{"count":2}`), 0))
	require.Equal(t, time.Duration(0), mr.TTL(testPrefix+"login_attempts:a@example.com"))

	ok, err := c.Exists(ctx, "login_attempts:a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "login_attempts:a@example.com"))
	_, err = c.Get(ctx, "login_attempts:a@example.com")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewCache(client, testPrefix)
	mr.Close()

	_, err := c.Get(context.Background(), "session:1")
	require.Error(t, err)
	require.NotErrorIs(t, err, repository.ErrCacheMiss)
}

func TestDistributedLock(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	first := NewDistributedLock(client, testPrefix)
	second := NewDistributedLock(client, testPrefix)

	ok, err := first.Acquire(ctx, "lock:user:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx, "lock:user:1", time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	// A lease taken elsewhere cannot be released here.
	released, err := second.Release(ctx, "lock:user:1")
	require.NoError(t, err)
	require.False(t, released)

	held, err := second.Held(ctx, "lock:user:1")
	require.NoError(t, err)
	require.True(t, held)

	released, err = first.Release(ctx, "lock:user:1")
	require.NoError(t, err)
	require.True(t, released)

	held, err = first.Held(ctx, "lock:user:1")
	require.NoError(t, err)
	require.False(t, held)

	ok, err = second.Acquire(ctx, "lock:user:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, err = second.Release(ctx, "lock:user:1")
	require.ErrorIs(t, err, repository.ErrLockExpired)
}
