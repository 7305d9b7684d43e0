package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lockout counts failed sign-ins per email in Redis and blocks further
// attempts once the threshold is reached, until the window expires.
type Lockout struct {
	client    *redis.Client
	maxFailed int
	window    time.Duration
}

// NewLockout constructs a Lockout. A nil client disables it.
func NewLockout(client *redis.Client, maxFailed int, window time.Duration) *Lockout {
	return &Lockout{client: client, maxFailed: maxFailed, window: window}
}

func (l *Lockout) key(email string) string {
	return "trainhub:login_failures:" + email
}

// Locked reports whether email has exhausted its attempts.
func (l *Lockout) Locked(ctx context.Context, email string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	count, err := l.client.Get(ctx, l.key(email)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: read lockout: %w", err)
	}
	return count >= l.maxFailed, nil
}

// Fail records one failed attempt and returns the running count. The window
// starts at the first failure. The counter is created with its TTL in the
// same transaction as the increment, so it can never outlive the window.
func (l *Lockout) Fail(ctx context.Context, email string) (int, error) {
	if l == nil || l.client == nil {
		return 0, nil
	}
	key := l.key(email)
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetArgs(ctx, key, 0, redis.SetArgs{Mode: "NX", TTL: l.window})
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("auth: record failure: %w", err)
	}
	count, err := incr.Result()
	if err != nil {
		return 0, fmt.Errorf("auth: record failure: %w", err)
	}
	return int(count), nil
}

// Reset clears the failure count after a successful sign-in.
func (l *Lockout) Reset(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, l.key(email)).Err()
}
