package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/relayops/leadtrack/pkg/errors"
)

var (
	// ErrLockNotAcquired is returned when the lock stays held through every
	// retry attempt.
	ErrLockNotAcquired = errors.New(errors.CodeConflict, "failed to acquire lock")
	// ErrLockNotHeld is returned by Unlock when the lock expired or belongs
	// to another holder.
	ErrLockNotHeld = errors.New(errors.CodeConflict, "lock not held by this owner")
)

// Mutex is a single-holder distributed lock backed by SET NX.  Report
// generation takes one per report period so two instances never render the
// same artifact concurrently.  The random holder tag makes Unlock safe
// against releasing a lock that expired and was re-acquired by someone else.
type Mutex struct {
	client     *Client
	key        string
	value      string
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

type MutexOption func(*Mutex)

// WithLockTTL bounds how long the lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) MutexOption {
	return func(m *Mutex) { m.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) MutexOption {
	return func(m *Mutex) { m.retryDelay = delay }
}

func WithRetryCount(count int) MutexOption {
	return func(m *Mutex) { m.retryCount = count }
}

func NewMutex(client *Client, name string, opts ...MutexOption) *Mutex {
	m := &Mutex{
		client:     client,
		key:        client.KeyPrefix() + "lock:" + name,
		value:      uuid.New().String(),
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lock blocks until the lock is acquired, the retry budget runs out, or the
// context is cancelled.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; i < m.retryCount; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay):
		}
	}
	return ErrLockNotAcquired
}

// TryLock makes a single acquisition attempt.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to acquire lock")
	}
	return ok, nil
}

// Unlock releases the lock if this holder still owns it.
func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := unlockScript.Run(ctx, m.client.GetUnderlyingClient(), []string{m.key}, m.value).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to release lock")
	}
	if res.(int64) == 0 {
		return ErrLockNotHeld
	}
	return nil
}
