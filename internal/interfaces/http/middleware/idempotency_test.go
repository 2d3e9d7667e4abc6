package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/cache"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Close() error { return nil }

func idempotencyRouter(cfg IdempotencyConfig, calls *int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuth(JWTAuthConfig{}), Idempotency(cfg))
	router.POST("/batch/bookings/cancel", func(c *gin.Context) {
		*calls++
		c.Status(http.StatusOK)
	})
	router.POST("/batch/bookings/confirm", func(c *gin.Context) {
		*calls++
		c.Status(http.StatusOK)
	})
	return router
}

func post(router *gin.Engine, path, key, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RejectsRepeatedKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := idempotencyRouter(IdempotencyConfig{Store: store, TTL: time.Hour}, &calls)

	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "k-1", "ops").Code)

	w := post(router, "/batch/bookings/cancel", "k-1", "ops")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, errorCode(t, w))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_KeysAreScoped(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := idempotencyRouter(IdempotencyConfig{Store: store, TTL: time.Hour}, &calls)

	require.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "k-1", "ops").Code)
	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/confirm", "k-1", "ops").Code)
	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "k-1", "other").Code)
	assert.Equal(t, 3, calls)
}

func TestIdempotency_NoHeader(t *testing.T) {
	store := &mockIdempotencyStore{}
	calls := 0
	router := idempotencyRouter(IdempotencyConfig{Store: store, TTL: time.Hour}, &calls)

	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "", "").Code)
	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "", "").Code)
	assert.Equal(t, 2, calls)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	calls := 0
	router := idempotencyRouter(IdempotencyConfig{Store: &mockIdempotencyStore{}, TTL: time.Hour}, &calls)

	w := post(router, "/batch/bookings/cancel", strings.Repeat("k", MaxIdempotencyKeyLength+1), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidIdemKey, errorCode(t, w))
	assert.Zero(t, calls)
}

func TestIdempotency_StoreErrorFailsOpen(t *testing.T) {
	store := &mockIdempotencyStore{}
	store.On("MarkProcessed", mock.Anything, "ops|/batch/bookings/cancel|k-1", 30*time.Minute).
		Return(false, errors.New("connection refused"))

	core, logs := observer.New(zap.ErrorLevel)
	calls := 0
	router := idempotencyRouter(IdempotencyConfig{Store: store, TTL: 30 * time.Minute, Logger: zap.New(core)}, &calls)

	assert.Equal(t, http.StatusOK, post(router, "/batch/bookings/cancel", "k-1", "ops").Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to claim idempotency key").Len())
	store.AssertExpectations(t)
}
