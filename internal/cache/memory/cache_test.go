package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(WithClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(c.Stop)
	return c, clock
}

func TestCache_SessionExpires(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	_, err := c.Get(ctx, "session:missing")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "session:1", []byte(`{"id":"1"}`), time.Minute))
	v, err := c.Get(ctx, "session:1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1"}`, string(v))

	clock.Advance(59 * time.Second)
	ok, err := c.Exists(ctx, "session:1")
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "session:1")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
	ok, err = c.Exists(ctx, "session:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
}

func TestCache_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0] = 'x'

	out, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))
	out[0] = 'y'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}

func TestCache_DeleteAndReclaim(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))
	require.NoError(t, c.Delete(ctx, "c"))
	require.NoError(t, c.Delete(ctx, "never-set"))
	require.Equal(t, 2, c.Len())

	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, c.Reclaim())
	require.Equal(t, 1, c.Len())
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := NewCache()
	c.Stop()
	c.Stop()
}
