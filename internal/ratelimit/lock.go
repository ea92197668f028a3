package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var ErrLockNotConfigured = errors.New("lock_not_configured")

const (
	// KEYS[1] lock key, ARGV[1] holder token
	releaseIfHolder = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
	// KEYS[1] lock key, ARGV[1] holder token, ARGV[2] ttl in milliseconds
	extendIfHolder = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`
)

// Locker hands out Redis leases keyed by name. A lease is a SET NX value holding
// a random token; only the token holder can extend or release it.
type Locker struct {
	client  *redis.Client
	release *redis.Script
	extend  *redis.Script
}

// NewLocker returns nil without a client.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:  client,
		release: redis.NewScript(releaseIfHolder),
		extend:  redis.NewScript(extendIfHolder),
	}
}

// TryLock reports ok=false without error when another holder owns key.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := l.check(key, ttl); err != nil {
		return "", false, err
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Refresh pushes the expiry of a held lease to ttl from now. It reports false
// when the lease expired or passed to someone else.
func (l *Locker) Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := l.check(key, ttl); err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	n, err := l.extend.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release is a no-op for a lease that is no longer held by token.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil || key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{key}, token).Err()
}

func (l *Locker) check(key string, ttl time.Duration) error {
	switch {
	case l == nil || l.client == nil:
		return ErrLockNotConfigured
	case key == "":
		return errors.New("lock key is empty")
	case ttl <= 0:
		return errors.New("lock ttl must be positive")
	}
	return nil
}
