// Package redislock provides redis-backed coordination primitives shared by
// every replica: per-key mutexes, counters and a fixed-window rate limiter.
// This is part of the platform layer and contains no business logic.
package redislock

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the lock.
var ErrNotAcquired = errors.New("lock not acquired")

// NewClient builds a go-redis client from a redis:// or rediss:// URL.
func NewClient(ctx context.Context, redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out SET NX PX mutexes under a key prefix.
type Locker struct {
	client redis.Cmdable
	prefix string
}

// NewLocker creates a Locker. Keys are stored as prefix + key.
func NewLocker(client redis.Cmdable, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock is a held mutex.
type Lock struct {
	client redis.Cmdable
	key    string
	token  string
}

// Acquire takes the lock for key or returns ErrNotAcquired. The lock expires
// after ttl even if never released.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{client: l.client, key: fullKey, token: token}, nil
}

// Release frees the lock if it is still ours. Releasing an expired or
// stolen lock is a no-op.
func (lk *Lock) Release(ctx context.Context) error {
	if lk == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s: %w", lk.key, err)
	}
	return nil
}

// Counter is a named integer counter shared across processes.
type Counter struct {
	client redis.Cmdable
	prefix string
}

// NewCounter creates a Counter. Keys are stored as prefix + key.
func NewCounter(client redis.Cmdable, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

// Incr adds one and returns the new value.
func (c *Counter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, c.prefix+key).Result()
}

// Get returns the current value; a missing key reads as zero.
func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, c.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// takeScript subtracts ARGV[1] from the counter without going below zero and
// returns what is left. An emptied counter is deleted.
var takeScript = redis.NewScript(`
local left = (tonumber(redis.call("GET", KEYS[1])) or 0) - tonumber(ARGV[1])
if left <= 0 then
	redis.call("DEL", KEYS[1])
	return 0
end
redis.call("SET", KEYS[1], left)
return left
`)

// Take subtracts n and returns the remaining value. Increments made after n
// was read survive.
func (c *Counter) Take(ctx context.Context, key string, n int64) (int64, error) {
	if n <= 0 {
		return c.Get(ctx, key)
	}
	left, err := takeScript.Run(ctx, c.client, []string{c.prefix + key}, n).Int64()
	if err != nil {
		return 0, fmt.Errorf("take %s: %w", c.prefix+key, err)
	}
	return left, nil
}

// WindowLimiter allows at most limit calls per key in each fixed window.
type WindowLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

// NewWindowLimiter creates a fixed-window limiter.
func NewWindowLimiter(client redis.Cmdable, prefix string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow counts one call for key and reports whether it fits the window.
func (w *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := w.prefix + key

	n, err := w.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, err
	}
	// The first hit of a window starts its clock.
	if n == 1 {
		if err := w.client.Expire(ctx, fullKey, w.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= w.limit, nil
}
