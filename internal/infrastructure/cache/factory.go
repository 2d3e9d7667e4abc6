package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// pingTimeout bounds the connectivity check done before using Redis
const pingTimeout = 5 * time.Second

// StoreOption configures NewIdempotencyStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger        *zap.Logger
	allowFallback bool
	sweepInterval time.Duration
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Defaults to true.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) { o.allowFallback = allow }
}

// WithSweepInterval sets the in-memory store's expiry sweep period
func WithSweepInterval(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.sweepInterval = d }
}

// NewIdempotencyStore returns a Redis store when cfg is enabled and reachable,
// the in-memory store otherwise
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.logger.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(o.sweepInterval), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := client.Ping(pingCtx).Err()
	if err == nil {
		o.logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return NewRedisIdempotencyStore(client, ""), nil
	}
	_ = client.Close()

	if !o.allowFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	o.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; duplicate submissions are only detected per instance",
		zap.String("addr", cfg.Addr()),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(o.sweepInterval), nil
}
