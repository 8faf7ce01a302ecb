package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutex_LockUnlock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	lock := NewMutex(client, "weekly-report", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))

	exists, err := client.Exists(ctx, "leadtrack:lock:weekly-report").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	require.NoError(t, lock.Unlock(ctx))

	exists, err = client.Exists(ctx, "leadtrack:lock:weekly-report").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestMutex_Contention(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	lock1 := NewMutex(client, "weekly-report", WithRetryCount(1), WithRetryDelay(10*time.Millisecond))
	lock2 := NewMutex(client, "weekly-report", WithRetryCount(1), WithRetryDelay(10*time.Millisecond))

	require.NoError(t, lock1.Lock(ctx))

	err := lock2.Lock(ctx)
	assert.Equal(t, ErrLockNotAcquired, err)

	require.NoError(t, lock1.Unlock(ctx))
	assert.NoError(t, lock2.Lock(ctx))
}

func TestMutex_TryLock(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	lock1 := NewMutex(client, "daily-report")
	lock2 := NewMutex(client, "daily-report")

	ok, err := lock1.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock1.Unlock(ctx))

	ok, err = lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutex_Unlock_NotHeld(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	holder := NewMutex(client, "weekly-report")
	intruder := NewMutex(client, "weekly-report")

	require.NoError(t, holder.Lock(ctx))

	err := intruder.Unlock(ctx)
	assert.Equal(t, ErrLockNotHeld, err)

	require.NoError(t, holder.Unlock(ctx))
	err = holder.Unlock(ctx)
	assert.Equal(t, ErrLockNotHeld, err, "second unlock finds nothing to release")
}

func TestMutex_ExpiredLockCanBeReacquired(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock1 := NewMutex(client, "daily-report", WithLockTTL(time.Second))
	lock2 := NewMutex(client, "daily-report")

	require.NoError(t, lock1.Lock(ctx))

	mr.FastForward(2 * time.Second)

	ok, err := lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// The original holder's tag no longer matches.
	err = lock1.Unlock(ctx)
	assert.Equal(t, ErrLockNotHeld, err)
}
