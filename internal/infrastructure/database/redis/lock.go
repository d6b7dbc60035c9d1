package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock is held by another owner")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// Locker hands out exclusive, expiring locks. Workers take one per job ID so
// a redelivered message is not matched twice concurrently.
type Locker interface {
	// TryAcquire takes name without waiting. It returns ErrLockNotAcquired
	// when another owner holds it.
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lock, error)
}

// Lock is a held lock. The token guards release and extension so an owner
// whose lock expired cannot remove a successor's.
type Lock struct {
	client *Client
	key    string
	token  string
	logger logging.Logger
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisLocker struct {
	client *Client
	logger logging.Logger
}

func NewLocker(client *Client, logger logging.Logger) Locker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &redisLocker{client: client, logger: logger}
}

func (l *redisLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	key := l.client.Key("lock", name)
	token := uuid.NewString()
	ok, err := l.client.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	l.logger.Debug("lock acquired", logging.String("key", key), logging.Duration("ttl", ttl))
	return &Lock{client: l.client, key: key, token: token, logger: l.logger}, nil
}

// Key is the full redis key of the lock.
func (k *Lock) Key() string { return k.key }

// Release deletes the lock if this owner still holds it.
func (k *Lock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, k.client.rdb, []string{k.key}, k.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend resets the expiry to ttl if this owner still holds the lock.
func (k *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, k.client.rdb, []string{k.key}, k.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to extend lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// KeepAlive extends the lock to ttl every interval until stop is called or
// ctx is done. If the lock turns out to be held by someone else, onLost is
// called once with ErrLockNotHeld and the heartbeat ends. Other extension
// errors are logged and retried on the next tick. stop waits for the
// heartbeat goroutine to exit.
func (k *Lock) KeepAlive(ctx context.Context, ttl, interval time.Duration, onLost func(error)) (stop func()) {
	if interval <= 0 {
		interval = ttl / 3
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			err := k.Extend(ctx, ttl)
			switch {
			case err == nil:
			case err == ErrLockNotHeld:
				k.logger.Warn("lock lost", logging.String("key", k.key))
				if onLost != nil {
					onLost(err)
				}
				return
			case ctx.Err() != nil:
				return
			default:
				k.logger.Warn("failed to extend lock", logging.String("key", k.key), logging.Err(err))
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

//Personal.AI order the ending
