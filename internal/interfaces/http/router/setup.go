package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/auth"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/logger"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/handler"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// defaultMaxBodySize applies when http.max_body_size is unset
const defaultMaxBodySize = 10 << 20

// Dependencies are the collaborators the engine is built from.
// TracerProvider and Meter may be nil when telemetry is off.
type Dependencies struct {
	Config           *config.Config
	Logger           *zap.Logger
	Batch            *handler.BatchHandler
	Health           *handler.HealthHandler
	JWTService       *auth.JWTService
	IdempotencyStore shared.IdempotencyStore
	TracerProvider   trace.TracerProvider
	Meter            metric.Meter
}

// New builds the gin engine with the global middleware chain and every route
func New(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	bodyLimit := cfg.HTTP.MaxBodySize
	if bodyLimit <= 0 {
		bodyLimit = defaultMaxBodySize
	}

	metrics, err := middleware.HTTPMetrics(deps.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(cors),
		middleware.BodyLimit(bodyLimit),
	)
	if deps.TracerProvider != nil {
		engine.Use(middleware.Tracing(serviceName, deps.TracerProvider))
	}

	if deps.Health != nil {
		engine.GET("/health", deps.Health.Health)
	}

	api := NewRouter(engine)
	api.Register(
		NewDomainGroup("/batch").
			Use(
				middleware.JWTAuth(middleware.JWTAuthConfig{
					Enabled:    cfg.JWT.Enabled,
					JWTService: deps.JWTService,
					Logger:     log,
				}),
				middleware.SpanEnricher(),
				metrics,
				middleware.ProfilingLabels(middleware.ProfilingConfig{Enabled: cfg.Profiling.Enabled}),
			).
			registerBatch(deps.Batch, middleware.Idempotency(middleware.IdempotencyConfig{
				Store:  deps.IdempotencyStore,
				TTL:    cfg.Batch.IdempotencyTTL,
				Logger: log,
			})),
	)
	api.Setup()

	return engine, nil
}

// registerBatch declares the batch routes. Reads need any authenticated
// caller, submissions need the staff role and honour Idempotency-Key.
func (dg *DomainGroup) registerBatch(h *handler.BatchHandler, idempotency gin.HandlerFunc) *DomainGroup {
	staff := middleware.RequireRole(auth.RoleStaff)

	dg.GET("/status/:job_id", h.GetJobStatus).
		GET("/jobs", h.ListJobs).
		GET("/examples", h.ListExamples).
		GET("/examples/:name", h.GetExample)

	dg.POST("/bookings/status-update", staff, idempotency, h.BulkUpdateBookingStatus).
		POST("/bookings/cancel", staff, idempotency, h.BulkCancelBookings).
		POST("/bookings/set-dates", staff, idempotency, h.BulkSetBookingDates).
		POST("/bookings/confirm", staff, idempotency, h.BulkConfirmBookings).
		POST("/bookings/assign-dates", staff, idempotency, h.BulkAssignDates).
		POST("/accommodations/status-update", staff, idempotency, h.BulkUpdateAccommodationStatus).
		POST("/execute", staff, idempotency, h.ExecuteBatch).
		POST("/validate", staff, h.ValidateBatch).
		POST("/cancel/:job_id", staff, h.CancelJob)

	return dg
}
