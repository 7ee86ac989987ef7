package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures a RedisLocker
type RedisOptions struct {
	KeyPrefix string
	// TTL bounds how long a crashed holder can block the key
	TTL time.Duration
	// Wait bounds how long WithLock polls before returning ErrLockTimeout
	Wait time.Duration
	// PollInterval is the delay between acquisition attempts
	PollInterval time.Duration
}

// RedisLocker is a lock shared by every replica using the same Redis.
// It is acquired with SET NX PX and released with a compare-and-delete script.
// fn runs under a deadline shorter than the TTL and receives a Lease in its context,
// which the Redis repository checks before committing a booking.
type RedisLocker struct {
	client *redis.Client
	opts   RedisOptions
	logger *zap.Logger
}

// NewRedisLocker creates a Redis backed Locker
func NewRedisLocker(client *redis.Client, opts RedisOptions, logger *zap.Logger) *RedisLocker {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{client: client, opts: opts, logger: logger}
}

func (l *RedisLocker) lockKey(key Key) string {
	return l.opts.KeyPrefix + "locks:" + key.RoomID + ":" + key.Date
}

// WithLock implements Locker
func (l *RedisLocker) WithLock(ctx context.Context, key Key, fn func(ctx context.Context) error) error {
	redisKey := l.lockKey(key)
	token := uuid.NewString()

	if err := l.acquire(ctx, redisKey, token); err != nil {
		return err
	}
	defer l.release(redisKey, token)

	holdCtx, cancel := context.WithTimeout(ctx, l.holdLimit())
	defer cancel()

	return fn(WithLease(holdCtx, Lease{Key: redisKey, Token: token}))
}

// holdLimit leaves a fifth of the TTL for the write and the release
func (l *RedisLocker) holdLimit() time.Duration {
	return l.opts.TTL - l.opts.TTL/5
}

func (l *RedisLocker) acquire(ctx context.Context, redisKey, token string) error {
	deadline := time.NewTimer(l.opts.Wait)
	defer deadline.Stop()

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := l.client.SetNX(ctx, redisKey, token, l.opts.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to acquire lock %s: %w", redisKey, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// release runs on a fresh context so that a cancelled caller still frees the key
func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		// The key still expires after TTL
		l.logger.Warn("Failed to release booking lock", zap.String("key", redisKey), zap.Error(err))
	}
}
