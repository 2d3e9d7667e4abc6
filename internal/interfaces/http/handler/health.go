package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/logger"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger checks that a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves GET /health
type HealthHandler struct {
	BaseHandler
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler pinging db
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// HealthResponse reports service health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health godoc
// @Summary      Health check
// @Description  Report whether the service can reach its database
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse,error=dto.ErrorInfo}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromContext(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    HealthResponse{Status: "unhealthy", Database: "unreachable"},
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeServiceUnavailable, Message: "Database is unreachable"},
		})
		return
	}
	h.Success(c, HealthResponse{Status: "healthy", Database: "connected"})
}
