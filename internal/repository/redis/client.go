package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client keeps live battle AI state: per-unit records and patrol node claims.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to the Redis at redisURL and checks it answers.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromPool wraps an existing connection, e.g. one a test set up.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
