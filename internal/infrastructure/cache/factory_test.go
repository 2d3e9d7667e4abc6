package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestNewIdempotencyStore_RedisDisabled(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestNewIdempotencyStore_FallsBackWhenUnreachable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	store, err := NewIdempotencyStore(context.Background(), unreachableRedis, WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "127.0.0.1:1", logs.All()[0].ContextMap()["addr"])
}

func TestNewIdempotencyStore_FallbackDisabled(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), unreachableRedis, WithInMemoryFallback(false))

	assert.Nil(t, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis required for idempotency but unavailable")
}
