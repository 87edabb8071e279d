package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "rbac:lock:"

// ErrLocked is returned when another process holds the lock of a routine.
var ErrLocked = errors.New("routine is already running")

// releaseScript deletes the lock only while it still carries the holder's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes routine runs across processes with a redis key per routine.
type Locker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewLocker returns a locker whose locks expire after ttl unless released earlier.
func NewLocker(rdb redis.UniversalClient, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock for name. The returned release func is safe to call after the
// lock expired: it never deletes a lock taken over by another holder.
func (l *Locker) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := lockPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrLocked
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}

	return release, nil
}
