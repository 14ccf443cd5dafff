package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config bounds the scheduler's store interaction.
type Config struct {
	// MaxConflictRetries is how many times a write rejected by the store's overlap
	// constraint is re-checked and retried before reporting ErrSlotConflict.
	MaxConflictRetries int
	// MaxStoreAttempts caps attempts of a store call failing with a transient error.
	MaxStoreAttempts int
	// StoreTimeout applies to every individual store call.
	StoreTimeout time.Duration
	// RetryInterval is the first backoff delay between transient retries.
	RetryInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConflictRetries: 3,
		MaxStoreAttempts:   3,
		StoreTimeout:       3 * time.Second,
		RetryInterval:      50 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxConflictRetries < 0 {
		c.MaxConflictRetries = 0
	}
	if c.MaxStoreAttempts <= 0 {
		c.MaxStoreAttempts = def.MaxStoreAttempts
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = def.StoreTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = def.RetryInterval
	}
	return c
}

// storeCaller runs store calls with a per-call timeout and retries transient failures.
type storeCaller struct {
	cfg    Config
	logger *slog.Logger
}

func isContractError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraintConflict)
}

func callStore[T any](ctx context.Context, c storeCaller, op string, fn func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
		defer cancel()
		v, err := fn(callCtx)
		if err != nil && (isContractError(err) || ctx.Err() != nil) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval
	policy.MaxInterval = c.cfg.StoreTimeout

	v, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.MaxStoreAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("store call failed; retrying", "op", op, "err", err, "retry_in", next)
		}),
	)
	if err == nil || isContractError(err) {
		return v, err
	}
	return v, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func callStoreErr(ctx context.Context, c storeCaller, op string, fn func(context.Context) error) error {
	_, err := callStore(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
