package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the counter and sets its expiry when the key has none,
// so a crash between the two commands cannot leave an immortal counter.
var incrScript = redis.NewScript(`
local current = redis.call("INCRBY", KEYS[1], ARGV[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	ttl = tonumber(ARGV[2])
end
return {current, ttl}
`)

// RedisStore keeps counters in Redis so all processes share them.
type RedisStore struct {
	client redis.Scripter
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

// IncrementAndGet atomically increments the counter for key.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	vals, err := incrScript.Run(ctx, s.client, []string{key}, incr, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis increment: %w", err)
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("ratelimit: redis increment: unexpected reply length %d", len(vals))
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}
