// Package memory is the single-instance session cache. Sessions and login
// counters kept here do not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/tradehub/internal/repository"
)

const defaultSweepInterval = time.Minute

type entry struct {
	value    []byte
	deadline time.Time // zero means no expiry
}

func (e entry) liveAt(now time.Time) bool {
	return e.deadline.IsZero() || now.Before(e.deadline)
}

// Cache is a map of byte values with per-key deadlines. Expired keys are
// invisible to readers immediately and reclaimed by a background sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	sweep   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock makes expiry follow now instead of the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSweepInterval sets how often expired keys are reclaimed.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweep = d
		}
	}
}

// NewCache starts a cache and its sweeper. Call Stop to end the sweeper.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
		sweep:   defaultSweepInterval,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.sweeper()
	return c
}

func (c *Cache) sweeper() {
	t := time.NewTicker(c.sweep)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.Reclaim()
		}
	}
}

// Reclaim drops expired keys and returns how many were dropped.
func (c *Cache) Reclaim() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for k, e := range c.entries {
		if !e.liveAt(now) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Stop ends the sweeper. It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Len counts stored keys, including expired keys not yet reclaimed.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !e.liveAt(c.now()) {
		return entry{}, false
	}
	return e, true
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.lookup(key)
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.deadline = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

var _ repository.Cache = (*Cache)(nil)
