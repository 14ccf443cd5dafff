package httpx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests per client in clock aligned windows stored in Redis, so
// every replica draws from the same budget.
type RedisLimiter struct {
	rdb    redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per window. Keys are "<prefix>:<client>:<window>".
func NewRedisLimiter(rdb redis.Cmdable, limit int, window time.Duration, prefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Second {
		window = time.Minute
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: prefix, now: time.Now}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	var incr *redis.IntCmd
	bucket := rl.bucketKey(key, rl.now())
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, bucket)
		// The key outlives its window slightly so a late INCR never resurrects it.
		pipe.Expire(ctx, bucket, rl.window+time.Second)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", bucket, err)
	}
	return incr.Val() <= rl.limit, nil
}

func (rl *RedisLimiter) bucketKey(key string, now time.Time) string {
	window := now.Truncate(rl.window).Unix()
	return rl.prefix + ":" + key + ":" + strconv.FormatInt(window, 10)
}
