// Package redis backs the MolMatch result cache and the per-job locks that
// keep two workers from running the same batch job.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// Client wraps a go-redis universal client with the key prefix every MolMatch
// key carries.
type Client struct {
	rdb    redis.UniversalClient
	prefix string
	logger logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient connects using cfg and verifies the connection with PING.
func NewClient(cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.ErrCodeValidation, "redis address is required")
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{cfg.Addr},
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	c := NewClientFromUniversal(rdb, cfg.KeyPrefix, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	c.logger.Info("redis client connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return c, nil
}

// NewClientFromUniversal wraps an existing connection, e.g. a redismock client.
func NewClientFromUniversal(rdb redis.UniversalClient, prefix string, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, prefix: prefix, logger: logger.Named("redis")}
}

// Key prepends the configured prefix.
func (c *Client) Key(parts ...string) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

// Universal exposes the underlying client for commands not wrapped here.
func (c *Client) Universal() redis.UniversalClient { return c.rdb }

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "redis ping failed")
	}
	return nil
}

// Close releases the connection pool. Calling it twice is harmless.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}

//Personal.AI order the ending
