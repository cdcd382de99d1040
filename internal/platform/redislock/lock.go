package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLockFailed = errors.New("failed to acquire lock")

// Lock is a SetNX-based mutex with an expiry so a crashed holder cannot
// deadlock the key. The value identifies the holder; Unlock verifies it
// before deleting so a late unlock never releases someone else's lock.
type Lock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func New(client *redis.Client, key, value string, expiration time.Duration) *Lock {
	return &Lock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts to take the lock without blocking.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock blocks with retries until the lock is held or retries run out.
func (l *Lock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock. Check-and-delete runs as a Lua script so it
// is atomic against a concurrent expiry + re-acquire.
func (l *Lock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewWalletLock serializes wallet mutations per user. Different users
// proceed concurrently; overlapping check-pending clicks by the same
// user queue behind each other.
func NewWalletLock(client *redis.Client, userID, holder string) *Lock {
	key := fmt.Sprintf("payref:lock:wallet:%s", userID)
	return New(client, key, holder, 30*time.Second)
}
