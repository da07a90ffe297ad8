package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript resets the expiry only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Locker hands out expiring leases keyed by name (SET NX PX).
type Locker struct {
	client *redis.Client
}

// NewLocker creates a Locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Lease is a held lock. Release is safe to call after expiry.
type Lease struct {
	key    string
	token  string
	client *redis.Client
}

// Acquire tries to take the named lock for ttl. It returns (nil, nil) when another
// holder owns it.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lease{key: lockPrefix + name, token: token, client: l.client}, nil
}

// Release gives the lock back if this lease still owns it.
func (s *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, s.client, []string{s.key}, s.token).Err()
}

// Extend resets the lease expiry to ttl from now. It reports false when the lease
// expired or was taken over, in which case the caller no longer holds the lock.
func (s *Lease) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, s.client, []string{s.key}, s.token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
