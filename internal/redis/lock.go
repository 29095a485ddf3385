package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles short-lived reservations in Redis.
type LockStore struct {
	client redis.Cmdable
}

// NewLockStore creates a new LockStore.
func NewLockStore(client redis.Cmdable) *LockStore {
	return &LockStore{client: client}
}

func lockKey(key string) string {
	return key + ":lock"
}

// Acquire reserves key for ttl, tagging the reservation with owner.
// Returns true if the reservation was taken, false if someone else holds it.
func (s *LockStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(key), owner, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// releaseScript deletes the reservation only while owner still holds it, so
// a holder whose TTL lapsed cannot drop a newer reservation.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Release drops the reservation on key if owner holds it.
func (s *LockStore) Release(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, s.client, []string{lockKey(key)}, owner).Err()
}
