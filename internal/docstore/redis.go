package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig for the redis document backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every document name, e.g. "storefront:".
	Prefix  string
	Timeout time.Duration
}

// RedisBackend stores each document as one string value. Like the file
// backend it rewrites the whole value on every save.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s ping: %w", cfg.Addr, err)
	}
	return &RedisBackend{client: client, prefix: cfg.Prefix}, nil
}

func (r *RedisBackend) Read(ctx context.Context, name string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	return b, err
}

func (r *RedisBackend) Write(ctx context.Context, name string, data []byte) error {
	return r.client.Set(ctx, r.prefix+name, data, 0).Err()
}

func (r *RedisBackend) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisBackend) Close() error { return r.client.Close() }
