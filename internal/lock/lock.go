// Package lock serializes read-modify-write cycles on single records. The
// document store has no transactions, so every update of a user, admin or
// watchlist runs under the record's lock key.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/tradehub/internal/repository"
)

// Locker grants expiring exclusive leases on keys. The Redis lease
// (repository.DistributedLock) satisfies it directly.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) (bool, error)
	Held(ctx context.Context, key string) (bool, error)
}

var _ Locker = repository.DistributedLock(nil)

// Policy bounds how long WithLock waits for a contended key.
type Policy struct {
	TTL      time.Duration
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy waits about one second for a contended record.
var DefaultPolicy = Policy{
	TTL:      10 * time.Second,
	Attempts: 50,
	Delay:    20 * time.Millisecond,
}

// WithLock runs fn while holding key under DefaultPolicy.
func WithLock(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) error {
	return DefaultPolicy.Do(ctx, locker, key, fn)
}

// Do runs fn while holding key. A key still contended after the last
// attempt yields repository.ErrLockNotAcquired and fn does not run.
func (p Policy) Do(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) error {
	if err := p.acquire(ctx, locker, key); err != nil {
		return err
	}
	// Release must happen even when the caller's context is cancelled.
	defer locker.Release(context.WithoutCancel(ctx), key) //nolint:errcheck

	return fn(ctx)
}

func (p Policy) acquire(ctx context.Context, locker Locker, key string) error {
	attempts := max(p.Attempts, 1)
	var wait *time.Timer
	for i := 0; i < attempts; i++ {
		ok, err := locker.Acquire(ctx, key, p.TTL)
		if err != nil {
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if i == attempts-1 {
			break
		}

		if wait == nil {
			wait = time.NewTimer(p.Delay)
			defer wait.Stop()
		} else {
			wait.Reset(p.Delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait.C:
		}
	}
	return fmt.Errorf("%w: %s", repository.ErrLockNotAcquired, key)
}

// Keys names the lock of each record kind.
var Keys keys

type keys struct{}

func (keys) User(id string) string { return "lock:user:" + id }

// Email guards registration so two sign-ups cannot claim one address.
func (keys) Email(email string) string { return "lock:email:" + email }

func (keys) Admin(id string) string { return "lock:admin:" + id }

func (keys) Watchlist(id string) string { return "lock:watchlist:" + id }

// DocumentMigration is held while the runner upgrades stored documents.
func (keys) DocumentMigration() string { return "lock:migration:documents" }

// DefaultAdmin is held while the bootstrap admin is created.
func (keys) DefaultAdmin() string { return "lock:bootstrap:admin" }
