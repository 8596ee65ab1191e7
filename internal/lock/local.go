package lock

import (
	"context"
	"sync"
	"time"
)

// pruneEvery is how many acquisitions pass between sweeps of lapsed leases.
const pruneEvery = 256

// MemoryLocker leases keys inside one process. It backs single-instance
// deployments that run without Redis.
type MemoryLocker struct {
	mu       sync.Mutex
	leases   map[string]time.Time
	now      func() time.Time
	acquires int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.acquires++
	if m.acquires%pruneEvery == 0 {
		for k, until := range m.leases {
			if !now.Before(until) {
				delete(m.leases, k)
			}
		}
	}

	if until, ok := m.leases[key]; ok && now.Before(until) {
		return false, nil
	}
	m.leases[key] = now.Add(ttl)
	return true, nil
}

// Release reports false when key was not leased or had already lapsed.
func (m *MemoryLocker) Release(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.leases[key]
	delete(m.leases, key)
	return ok && m.now().Before(until), nil
}

func (m *MemoryLocker) Held(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.leases[key]
	return ok && m.now().Before(until), nil
}

// nopLocker grants every lease. Services fall back to it when built without
// a locker, which is only sound for single-goroutine use.
type nopLocker struct{}

func NewNoOpLocker() Locker { return nopLocker{} }

func (nopLocker) Acquire(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

func (nopLocker) Release(context.Context, string) (bool, error) { return true, nil }

func (nopLocker) Held(context.Context, string) (bool, error) { return false, nil }

var (
	_ Locker = (*MemoryLocker)(nil)
	_ Locker = nopLocker{}
)
