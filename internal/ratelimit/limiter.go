package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Allow records one attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
}

// Rule is the budget for one kind of attempt.
type Rule struct {
	Max    int
	Window time.Duration
}

// DefaultLoginRule allows ten login attempts per client every fifteen minutes.
func DefaultLoginRule() Rule {
	return Rule{Max: 10, Window: 15 * time.Minute}
}

// RedisLimiter shares counters between server instances.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	rule   Rule
}

func NewRedisLimiter(rdb *redis.Client, prefix string, rule Rule) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, rule: rule}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl == nil || rl.rdb == nil {
		return false, fmt.Errorf("Redis client not available")
	}
	redisKey := fmt.Sprintf("rate:%s:%s", rl.prefix, key)

	count, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	// Set expiration on the first hit of the window
	if count == 1 {
		if err := rl.rdb.Expire(ctx, redisKey, rl.rule.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(rl.rule.Max), nil
}

// LocalLimiter keeps counters in process memory. Expired windows are swept by
// the cache janitor.
type LocalLimiter struct {
	counts *cache.Cache
	rule   Rule
}

func NewLocalLimiter(rule Rule) *LocalLimiter {
	return &LocalLimiter{counts: cache.New(rule.Window, 2*rule.Window), rule: rule}
}

func (ll *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	if err := ll.counts.Add(key, 1, ll.rule.Window); err == nil {
		return ll.rule.Max >= 1, nil
	}
	count, err := ll.counts.IncrementInt(key, 1)
	if err != nil {
		// The window expired between Add and IncrementInt.
		ll.counts.Set(key, 1, ll.rule.Window)
		count = 1
	}
	return count <= ll.rule.Max, nil
}
