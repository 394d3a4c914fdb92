package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "replay:"

// RedisGuard tracks consumed tokens in Redis so multiple instances share
// one replay window. SET NX with a TTL is the atomic check-and-set.
type RedisGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisGuard creates a guard over an existing Redis client.
func NewRedisGuard(client *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, window: window}
}

// CheckAndConsume returns false when the pair was already consumed inside
// the window. A Redis failure is surfaced: the caller must fail the request
// rather than let a replay through.
func (g *RedisGuard) CheckAndConsume(ctx context.Context, identityKey string, tokenTimestamp int64, now time.Time) (bool, error) {
	key := redisPrefix + entryKey(identityKey, tokenTimestamp)

	ok, err := g.client.SetNX(ctx, key, now.Unix(), g.window).Result()
	if err != nil {
		return false, fmt.Errorf("replay guard set: %w", err)
	}
	return ok, nil
}
