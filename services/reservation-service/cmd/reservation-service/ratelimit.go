package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/libs/runtime"
	"github.com/redis/go-redis/v9"
)

// newLimiter shares the request budget across replicas through Redis when REDIS_ADDR
// is set, and keeps it per process otherwise.
func newLimiter(ctx context.Context, cfg settings, logger *slog.Logger) (httpx.Limiter, *runtime.ReadyCheck) {
	if cfg.RedisAddr == "" {
		return httpx.NewMemoryLimiter(cfg.RatePerMinute, time.Minute), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	go func() {
		<-ctx.Done()
		_ = rdb.Close()
	}()
	logger.Info("rate limiting via redis", "addr", cfg.RedisAddr, "per_minute", cfg.RatePerMinute)

	check := &runtime.ReadyCheck{
		Name:     "redis",
		Optional: true,
		Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
	return httpx.NewRedisLimiter(rdb, cfg.RatePerMinute, time.Minute, cfg.Service+":ratelimit"), check
}
