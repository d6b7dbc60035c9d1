package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

func newLockTestClient(t *testing.T) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "molmatch:"}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewLocker(client, nil)
}

func TestLock_AcquireRelease(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "molmatch:lock:job-1", lock.Key())
	assert.True(t, mr.Exists("molmatch:lock:job-1"))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists("molmatch:lock:job-1"))
}

func TestLock_Contention(t *testing.T) {
	_, locker := newLockTestClient(t)
	ctx := context.Background()

	first, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, "job-1", time.Second)
	assert.Equal(t, ErrLockNotAcquired, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConflict))

	require.NoError(t, first.Release(ctx))
	second, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	assert.NoError(t, second.Release(ctx))
}

func TestLock_ReleaseAfterExpiry(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	stale, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := locker.TryAcquire(ctx, "job-1", time.Minute)
	require.NoError(t, err)

	// The expired owner must not remove the successor's lock.
	assert.Equal(t, ErrLockNotHeld, stale.Release(ctx))
	assert.True(t, mr.Exists("molmatch:lock:job-1"))
	assert.NoError(t, fresh.Release(ctx))
}

func TestLock_Extend(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Extend(ctx, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("molmatch:lock:job-1"))

	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, ErrLockNotHeld, lock.Extend(ctx, time.Minute))
}

func TestLock_KeepAliveExtends(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	stop := lock.KeepAlive(ctx, time.Minute, 10*time.Millisecond, func(error) {
		t.Error("lock reported lost")
	})
	defer stop()

	assert.Eventually(t, func() bool {
		return mr.TTL("molmatch:lock:job-1") == time.Minute
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLock_KeepAliveReportsLoss(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "job-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, mr.Set("molmatch:lock:job-1", "someone-else"))

	lost := make(chan error, 1)
	stop := lock.KeepAlive(ctx, time.Minute, 10*time.Millisecond, func(err error) { lost <- err })

	select {
	case err := <-lost:
		assert.Equal(t, ErrLockNotHeld, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loss was not reported")
	}
	stop()
	v, err := mr.Get("molmatch:lock:job-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestLock_KeepAliveStops(t *testing.T) {
	mr, locker := newLockTestClient(t)
	ctx := context.Background()

	lock, err := locker.TryAcquire(ctx, "job-1", time.Second)
	require.NoError(t, err)
	stop := lock.KeepAlive(ctx, time.Minute, time.Hour, nil)
	stop()

	// No tick happened, so the original expiry stands.
	assert.Equal(t, time.Second, mr.TTL("molmatch:lock:job-1"))
}

func TestLock_SetNXError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectSetNX("p:lock:job-1", `.+`, time.Second).SetErr(assert.AnError)

	locker := NewLocker(NewClientFromUniversal(db, "p:", nil), nil)
	_, err := locker.TryAcquire(context.Background(), "job-1", time.Second)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending
