package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/prn-tf/tradehub/internal/repository"
)

// compareAndDelete removes the lease only while it still carries our token.
var compareAndDelete = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// DistributedLock leases record keys with SET NX PX. The random token of
// every lease taken by this process is remembered until release.
type DistributedLock struct {
	client goredis.UniversalClient
	prefix string

	mu     sync.Mutex
	leases map[string]string
}

func NewDistributedLock(client goredis.UniversalClient, prefix string) *DistributedLock {
	return &DistributedLock{
		client: client,
		prefix: prefix,
		leases: make(map[string]string),
	}
}

func (l *DistributedLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease %s: %w", key, err)
	}
	if ok {
		l.mu.Lock()
		l.leases[key] = token
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *DistributedLock) Release(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	token, ok := l.leases[key]
	delete(l.leases, key)
	l.mu.Unlock()
	if !ok {
		return false, nil
	}

	n, err := compareAndDelete.Run(ctx, l.client, []string{l.prefix + key}, token).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("unlease %s: %w", key, err)
	}
	if n == 0 {
		return false, fmt.Errorf("%w: %s", repository.ErrLockExpired, key)
	}
	return true, nil
}

// Held reports whether any instance currently leases key.
func (l *DistributedLock) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("probe lease %s: %w", key, err)
	}
	return n == 1, nil
}

var _ repository.DistributedLock = (*DistributedLock)(nil)
