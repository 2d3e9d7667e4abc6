package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for ProfilingLabels
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are served without labels
	SkipPaths []string
}

// DefaultProfilingConfig skips the health check
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{Enabled: true, SkipPaths: []string{"/health"}}
}

// ProfilingLabels attaches the method and route pattern to the profile
// samples taken while the request is handled
func ProfilingLabels(cfg ProfilingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !cfg.Enabled || route == "" || slices.Contains(cfg.SkipPaths, route) {
			c.Next()
			return
		}
		telemetry.WithRequestLabels(c.Request.Context(), c.Request.Method, route, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
