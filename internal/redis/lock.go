package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 25 * time.Millisecond
)

// Locker provides a mutual-exclusion scope keyed by an arbitrary string.
// Assignment uses it keyed by worker ID so concurrent assignment attempts
// against the same worker are serialized.
type Locker interface {
	// Acquire blocks until the lock is held or ctx expires. The returned
	// release function is safe to call exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type redisLocker struct {
	client *redis.Client
}

// NewLocker returns a Redis SetNX-based Locker.
func NewLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

// releaseScript deletes the lock only if this holder still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	rkey := "lock:" + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(lockRetryWait):
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{rkey}, token).Err()
	}
	return release, nil
}
