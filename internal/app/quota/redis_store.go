package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript runs the whole check-and-charge as one Redis round trip, so
// two concurrent requests can never both spend the last unit. Replies with
// {allowed, remaining, pttl_ms}.
var consumeScript = redis.NewScript(`
local quota = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local remaining = redis.call('GET', KEYS[1])
if remaining == false then
  redis.call('SET', KEYS[1], quota - 1, 'PX', window)
  return {1, quota - 1, window}
end
remaining = tonumber(remaining)
if remaining > 0 then
  remaining = redis.call('DECR', KEYS[1])
  return {1, remaining, redis.call('PTTL', KEYS[1])}
end
return {0, 0, redis.call('PTTL', KEYS[1])}
`)

type redisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore returns a Store that keeps per-caller counters in Redis under
// keyPrefix. The window is store-enforced via key expiry.
func NewRedisStore(client *redis.Client, keyPrefix string) Store {
	return &redisStore{client: client, keyPrefix: keyPrefix}
}

func (s *redisStore) Consume(ctx context.Context, key string, quota int64, window time.Duration) (Result, error) {
	raw, err := consumeScript.Run(ctx, s.client, []string{s.keyPrefix + key}, quota, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("quota: consume %q: %w", key, err)
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 3 {
		return Result{}, fmt.Errorf("quota: unexpected script reply %T for %q", raw, key)
	}

	allowed, _ := reply[0].(int64)
	remaining, _ := reply[1].(int64)
	pttl, _ := reply[2].(int64)

	return Result{
		Allowed:   allowed == 1,
		Remaining: remaining,
		ResetIn:   time.Duration(pttl) * time.Millisecond,
	}, nil
}
