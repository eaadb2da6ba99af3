// Package cache implements store.Cache on Redis through a redigo pool.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"
)

const (
	defaultMaxIdle = 10
	idleTimeout    = 4 * time.Minute
	scanCount      = 100
)

// Cache is a Redis backed cache.
type Cache struct {
	pool   *redis.Pool
	logger *zap.Logger
}

// New creates a cache dialing the given redis:// URL lazily.
func New(url string, maxIdle int, log *zap.Logger) (*Cache, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdle
	}

	pool := &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: idleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	return NewWithPool(pool, log), nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool *redis.Pool, log *zap.Logger) *Cache {
	return &Cache{pool: pool, logger: logger.ForStore(log, store.NameCache)}
}

func (c *Cache) do(ctx context.Context, command string, args ...any) (any, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting redis connection: %w", err)
	}
	defer conn.Close()

	return redis.DoContext(conn, ctx, command, args...)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := redis.Bytes(c.do(ctx, "GET", key))
	if errors.Is(err, redis.ErrNil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return value, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds <= 0 {
		return fmt.Errorf("redis SETEX %s: ttl must be at least one second", key)
	}
	if _, err := c.do(ctx, "SETEX", key, seconds, value); err != nil {
		return fmt.Errorf("redis SETEX %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}
	if _, err := c.do(ctx, "DEL", args...); err != nil {
		return fmt.Errorf("redis DEL %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}

// DeletePattern removes every key matching pattern using SCAN, so large
// keyspaces are never blocked by KEYS.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting redis connection: %w", err)
	}
	defer conn.Close()

	deleted := 0
	cursor := int64(0)
	for {
		values, err := redis.Values(redis.DoContext(conn, ctx, "SCAN", cursor, "MATCH", pattern, "COUNT", scanCount))
		if err != nil {
			return deleted, fmt.Errorf("redis SCAN %s: %w", pattern, err)
		}

		var keys []string
		if _, err := redis.Scan(values, &cursor, &keys); err != nil {
			return deleted, fmt.Errorf("redis SCAN %s: %w", pattern, err)
		}

		if len(keys) > 0 {
			args := make([]any, 0, len(keys))
			for _, key := range keys {
				args = append(args, key)
			}
			n, err := redis.Int(redis.DoContext(conn, ctx, "DEL", args...))
			if err != nil {
				return deleted, fmt.Errorf("redis DEL %s: %w", pattern, err)
			}
			deleted += n
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("deleted keys by pattern", zap.String("pattern", pattern), zap.Int("deleted", deleted))
	return deleted, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	pong, err := redis.String(c.do(ctx, "PING"))
	if err != nil {
		return fmt.Errorf("redis PING: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("redis PING: unexpected reply %q", pong)
	}
	return nil
}

func (c *Cache) Close(context.Context) error {
	return c.pool.Close()
}
