package repository

import "errors"

// Document store errors. Backends wrap these with the collection and id so
// callers match them with errors.Is.
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
)

// Session cache and locking errors.
var (
	// ErrCacheMiss is returned by Cache.Get for absent or expired keys.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable wraps connection failures of a remote cache.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrLockNotAcquired means a record lock stayed contended past its retries.
	ErrLockNotAcquired = errors.New("record lock not acquired")

	// ErrLockExpired means a lock lapsed before its holder released it, so
	// another writer may have run concurrently.
	ErrLockExpired = errors.New("record lock expired before release")
)
