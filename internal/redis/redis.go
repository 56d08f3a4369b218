package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gigglechat/internal/config"

	redis "github.com/redis/go-redis/v9"
)

// Client wraps go-redis client to centralize configuration.
type Client struct {
	inner *redis.Client
}

// ErrCacheMiss mirrors redis.Nil for callers.
var ErrCacheMiss = redis.Nil

var errNotInitialized = errors.New("redis client not initialized")

// NewRedisClient creates the redis client from app config and verifies the connection.
func NewRedisClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	host := cfg.Redis.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Redis.Port
	if port == 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{inner: client}, nil
}

// GetJSON decodes the cached value for key into dst. Returns ErrCacheMiss when absent.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	raw, err := c.inner.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON stores value encoded as JSON with TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.inner.Set(ctx, key, payload, ttl).Err()
}

// Del removes provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	return c.inner.Del(ctx, keys...).Err()
}

// Close closes client.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// Raw exposes underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.inner
}
