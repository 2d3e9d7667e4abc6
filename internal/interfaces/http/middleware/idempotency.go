package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client-chosen submission key
	IdempotencyKeyHeader = "Idempotency-Key"
	// MaxIdempotencyKeyLength bounds client-supplied keys
	MaxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for Idempotency
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency claims the Idempotency-Key of a request before it runs and
// rejects a second request carrying the same key with 409. Requests without
// the header pass through. Keys are scoped to the caller and the route.
// Claims are kept whatever the outcome, so a rejected submission must be
// retried with a new key.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidIdemKey, "Idempotency-Key is too long")
			return
		}

		scoped := GetUserID(c) + "|" + c.FullPath() + "|" + key
		claimed, err := cfg.Store.MarkProcessed(c.Request.Context(), scoped, cfg.TTL)
		if err != nil {
			// The store being unreachable does not block submissions
			log.Error("Failed to claim idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !claimed {
			log.Info("Duplicate batch submission rejected",
				zap.String("idempotency_key", key),
				zap.String("route", c.FullPath()),
			)
			abortWithError(c, http.StatusConflict, dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already submitted")
			return
		}
		c.Next()
	}
}
