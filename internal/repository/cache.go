package repository

import (
	"context"
	"time"
)

// Cache holds short-lived authentication state: sessions and login failure
// counters. Values are opaque JSON blobs owned by the service layer.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value until ttl elapses. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// DistributedLock grants expiring exclusive leases on record keys shared by
// every server instance.
type DistributedLock interface {
	// Acquire reports false without error when another holder has the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release reports false when this process does not hold key, and
	// ErrLockExpired when the lease lapsed while held.
	Release(ctx context.Context, key string) (bool, error)

	Held(ctx context.Context, key string) (bool, error)
}

// CacheKey builds the cache keys of the session store.
type CacheKey struct{}

func (CacheKey) Session(id string) string {
	return "session:" + id
}

// LoginAttempts keys the failure counter of a user email.
func (CacheKey) LoginAttempts(email string) string {
	return "login_attempts:" + email
}

// AdminLoginAttempts keys admin failures apart from user failures with the
// same email.
func (CacheKey) AdminLoginAttempts(email string) string {
	return "login_attempts:admin:" + email
}
