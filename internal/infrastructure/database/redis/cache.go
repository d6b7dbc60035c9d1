package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent or holds the
// negative-cache marker.
var ErrCacheMiss = errors.New(errors.ErrCodeCacheError, "cache miss")

// nullMarker is stored for loaders that found nothing, so repeated misses do
// not reach the loader.
const nullMarker = "__null__"

// Cache stores JSON-encoded values under a namespaced key.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetOrSet reads key into dest, calling loader once per key across
	// concurrent callers on a miss. A loader returning (nil, nil) stores the
	// negative marker and GetOrSet returns ErrCacheMiss.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

type CacheOption func(*redisCache)

// WithNamespace sets the key segment after the client prefix. Default "cache".
func WithNamespace(ns string) CacheOption {
	return func(c *redisCache) { c.namespace = ns }
}

// WithJitter spreads TTLs by ±fraction so entries written together do not
// expire together. 0 disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *redisCache) { c.jitter = fraction }
}

func WithNullTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.nullTTL = ttl }
}

type redisCache struct {
	client    *Client
	logger    logging.Logger
	namespace string
	jitter    float64
	nullTTL   time.Duration
	group     singleflight.Group
}

func NewRedisCache(client *Client, logger logging.Logger, opts ...CacheOption) Cache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &redisCache{
		client:    client,
		logger:    logger,
		namespace: "cache",
		jitter:    0.1,
		nullTTL:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string { return c.client.Key(c.namespace, key) }

func (c *redisCache) ttl(ttl time.Duration) time.Duration {
	if c.jitter <= 0 || ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(float64(ttl)*c.jitter*(rand.Float64()*2-1))
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed")
	}
	if string(data) == nullMarker {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value decode failed")
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value encode failed")
	}
	if err := c.client.rdb.Set(ctx, c.fullKey(key), data, c.ttl(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.rdb.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.rdb.Exists(ctx, c.fullKey(key)).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "cache exists failed")
	}
	return n > 0, nil
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
	loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil || err != ErrCacheMiss {
		return err
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if val == nil {
			if err := c.client.rdb.Set(ctx, c.fullKey(key), nullMarker, c.nullTTL).Err(); err != nil {
				c.logger.Warn("failed to store negative cache entry", logging.String("key", key), logging.Err(err))
			}
			return nil, nil
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cache value encode failed")
		}
		if err := c.client.rdb.Set(ctx, c.fullKey(key), data, c.ttl(ttl)).Err(); err != nil {
			// The loaded value is still good; only the write-back failed.
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(err))
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if v == nil {
		return ErrCacheMiss
	}
	if shared {
		c.logger.Debug("cache load shared", logging.String("key", key))
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value decode failed")
	}
	return nil
}

//Personal.AI order the ending
