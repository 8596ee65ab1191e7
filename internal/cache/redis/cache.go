// Package redis shares sessions, login counters and record locks between
// server instances through one Redis database.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/repository"
)

// NewClient dials Redis and pings it once. A failed ping is reported as
// repository.ErrCacheUnavailable.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Str("key_prefix", cfg.KeyPrefix).
		Msg("session cache connected to Redis")
	return client, nil
}

// Cache stores session blobs as plain Redis strings under prefix.
type Cache struct {
	client goredis.UniversalClient
	prefix string
}

func NewCache(client goredis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + k }

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, repository.ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Set maps a zero ttl to a key without expiry, as go-redis does.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", key, err)
	}
	return n == 1, nil
}

var _ repository.Cache = (*Cache)(nil)
