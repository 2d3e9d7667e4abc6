package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DefaultCollectInterval is the gauge sampling period used when none is configured
const DefaultCollectInterval = time.Minute

// ErrMeterNil is returned when no meter is configured.
var ErrMeterNil = &MetricsError{Op: "NewBatchMetrics", Err: "meter cannot be nil"}

// MetricsError is returned by metric constructors.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// RunningJobsProvider reports the batch jobs executing in this process.
type RunningJobsProvider interface {
	Running() []string
}

// SagaStatsProvider reports persisted saga transactions per status.
type SagaStatsProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// BatchMetricsConfig configures NewBatchMetrics.
type BatchMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	// Providers feed the periodic gauges. Either may be nil.
	RunningJobs RunningJobsProvider
	SagaStats   SagaStatsProvider
}

// BatchMetrics counts batch operations, compensations and jobs.
// All Record methods are no-ops on a nil *BatchMetrics.
type BatchMetrics struct {
	logger *zap.Logger

	operationsTotal      *Counter
	operationDuration    *Histogram
	compensationsTotal   *Counter
	jobsTotal            *Counter
	jobOperations        *Histogram
	compensatedJobsTotal *Counter

	runningJobs      *Gauge
	sagaTransactions *Gauge

	runningProvider RunningJobsProvider
	sagaProvider    SagaStatsProvider
	collectInterval time.Duration

	collectOnce sync.Once
	stopOnce    sync.Once
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewBatchMetrics creates the batch instruments on cfg.Meter.
func NewBatchMetrics(cfg BatchMetricsConfig) (*BatchMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = DefaultCollectInterval
	}

	m := &BatchMetrics{
		logger:          logger,
		runningProvider: cfg.RunningJobs,
		sagaProvider:    cfg.SagaStats,
		collectInterval: interval,
		stopCh:          make(chan struct{}),
	}

	var err error
	if m.operationsTotal, err = NewCounter(cfg.Meter,
		"booking_batch_operations_total",
		"Batch operations executed, by type and outcome",
		"{operation}",
	); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "booking_batch_operation_duration_seconds",
		Description: "Latency of a single batch operation",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.compensationsTotal, err = NewCounter(cfg.Meter,
		"booking_batch_compensations_total",
		"Compensations attempted, by operation type and outcome",
		"{compensation}",
	); err != nil {
		return nil, err
	}
	if m.jobsTotal, err = NewCounter(cfg.Meter,
		"booking_batch_jobs_total",
		"Finished batch jobs by status",
		"{job}",
	); err != nil {
		return nil, err
	}
	if m.jobOperations, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "booking_batch_job_operations",
		Description: "Operations attempted per finished job",
		Unit:        "{operation}",
		Boundaries:  []float64{1, 5, 10, 50, 100, 250, 500, 1000},
	}); err != nil {
		return nil, err
	}
	if m.compensatedJobsTotal, err = NewCounter(cfg.Meter,
		"booking_batch_compensated_jobs_total",
		"Jobs that ran a compensation pass; success=false means some data was left for manual repair",
		"{job}",
	); err != nil {
		return nil, err
	}
	if m.runningJobs, err = NewGauge(cfg.Meter,
		"booking_batch_running_jobs",
		"Batch jobs currently executing in this process",
		"{job}",
	); err != nil {
		return nil, err
	}
	if m.sagaTransactions, err = NewGauge(cfg.Meter,
		"booking_batch_saga_transactions",
		"Persisted saga transactions by status",
		"{transaction}",
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation records one finished operation
func (m *BatchMetrics) RecordOperation(ctx context.Context, operationType string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.Inc(ctx, AttrOperationType.String(operationType), AttrSuccess.Bool(success))
	m.operationDuration.RecordDuration(ctx, d, AttrOperationType.String(operationType))
}

// RecordCompensation records one compensation outcome
func (m *BatchMetrics) RecordCompensation(ctx context.Context, operationType string, success bool) {
	if m == nil {
		return
	}
	m.compensationsTotal.Inc(ctx, AttrOperationType.String(operationType), AttrSuccess.Bool(success))
}

// RecordJob records a finished job
func (m *BatchMetrics) RecordJob(ctx context.Context, status string, successful, failed int) {
	if m == nil {
		return
	}
	m.jobsTotal.Inc(ctx, AttrJobStatus.String(status))
	m.jobOperations.Record(ctx, float64(successful+failed), AttrJobStatus.String(status))
}

// RecordCompensatedJob records a job that ran a compensation pass.
// clean is false when at least one compensation failed.
func (m *BatchMetrics) RecordCompensatedJob(ctx context.Context, clean bool) {
	if m == nil {
		return
	}
	m.compensatedJobsTotal.Inc(ctx, AttrSuccess.Bool(clean))
}

// StartPeriodicCollection samples the gauges every CollectInterval until Stop or ctx is done.
// Only the first call starts the collector.
func (m *BatchMetrics) StartPeriodicCollection(ctx context.Context) {
	if m == nil {
		return
	}
	m.collectOnce.Do(func() {
		m.wg.Add(1)
		go m.runPeriodicCollection(ctx)
	})
}

func (m *BatchMetrics) runPeriodicCollection(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.collectInterval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *BatchMetrics) collect(ctx context.Context) {
	if m.runningProvider != nil {
		m.runningJobs.Record(ctx, int64(len(m.runningProvider.Running())))
	}
	if m.sagaProvider == nil {
		return
	}
	counts, err := m.sagaProvider.CountByStatus(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect saga transaction counts", zap.Error(err))
		return
	}
	for status, n := range counts {
		m.sagaTransactions.Record(ctx, n, AttrSagaStatus.String(status))
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (m *BatchMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}
