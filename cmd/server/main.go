package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbatch "github.com/wishup-shore/booking-system-backend/internal/application/batch"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/auth"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/cache"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/event"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/logger"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/storage"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/handler"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/middleware"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logTimeFormat,
	}

	// The OTLP log exporter needs a logger before the final one exists
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    serviceName,
		LoggerProvider: logProvider,
		Level:          zapcore.InfoLevel,
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting booking batch service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := tracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}

	// Repositories
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	accommodationRepo := persistence.NewGormAccommodationRepository(db.DB)
	sagaRepo := persistence.NewGormSagaTransactionRepository(db.DB)

	// Batch processor
	processor := appbatch.NewSagaBatchProcessor(bookingRepo, accommodationRepo, sagaRepo, appbatch.ProcessorConfig{
		MaxConcurrency:            cfg.Batch.MaxConcurrency,
		CompensationTimeout:       cfg.Batch.CompensationTimeout,
		CompensationRetryAttempts: cfg.Batch.CompensationRetryAttempts,
		CompensationRetryDelay:    cfg.Batch.CompensationRetryDelay,
	}, log)

	batchMetrics, err := telemetry.NewBatchMetrics(telemetry.BatchMetricsConfig{
		Meter:       meterProvider.Meter("booking.batch"),
		Logger:      log,
		RunningJobs: processor.Jobs(),
		SagaStats:   telemetry.NewGormSagaStatsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create batch metrics", zap.Error(err))
	}
	processor.SetBatchMetrics(batchMetrics)
	if meterProvider.IsEnabled() {
		batchMetrics.StartPeriodicCollection(ctx)
	}

	if cfg.Audit.ArchiveEnabled {
		archive, err := storage.NewS3TransactionArchive(ctx, cfg.Audit, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create transaction archive", zap.Error(err))
		}
		processor.SetArchive(archive)
		log.Info("Saga transaction archive enabled",
			zap.String("bucket", cfg.Audit.Bucket),
			zap.String("prefix", cfg.Audit.Prefix),
		)
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := appbatch.NewBatchJobAuditHandler(batchMetrics, log)
	eventBus.Subscribe(auditHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	processor.SetEventPublisher(eventBus)
	log.Info("Event handlers registered", zap.Strings("batch_job_audit_events", auditHandler.EventTypes()))

	service := appbatch.NewBatchOperationService(processor, bookingRepo, accommodationRepo, sagaRepo, log)

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var tp trace.TracerProvider
	if tracerProvider.IsEnabled() {
		tp = otel.GetTracerProvider()
	}

	engine, err := router.New(router.Dependencies{
		Config:           cfg,
		Logger:           log,
		Batch:            handler.NewBatchHandler(service),
		Health:           handler.NewHealthHandler(sqlDB),
		JWTService:       auth.NewJWTService(cfg.JWT),
		IdempotencyStore: idempotencyStore,
		TracerProvider:   tp,
		Meter:            meterProvider.Meter("booking.http"),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Release in reverse order of construction
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	batchMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log exporter", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
