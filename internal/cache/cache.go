// Package cache is a fail-safe Redis client: every connectivity error behaves
// like a cache miss so callers can always fall back to Postgres.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but swallows connectivity errors.
// A nil *Client is valid and always misses.
type Client struct {
	client *redis.Client
}

func New(addr, password string, db int) *Client {
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}
}

// Redis exposes the underlying client for pub/sub. Nil when caching is disabled.
func (c *Client) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Get returns the value, or nil on a miss or when Redis is unavailable.
func (c *Client) Get(ctx context.Context, key string) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return res
}

// Set stores value with ttl, ignoring Redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
}

// Incr bumps the counter at key, ignoring Redis errors.
func (c *Client) Incr(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, key).Err()
}

// Ping reports whether Redis is reachable. Unlike the data methods it
// returns the error, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
