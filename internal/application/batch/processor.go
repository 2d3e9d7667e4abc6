package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/logger"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DryRunPrefix prefixes the job name of dry-run results
const DryRunPrefix = "DRY RUN: "

// ErrScheduledNotImplemented rejects requests that set ExecuteAt
var ErrScheduledNotImplemented = shared.NewDomainError("NOT_IMPLEMENTED", "Scheduled batch operations not yet implemented")

// ProcessorConfig tunes the batch executor
type ProcessorConfig struct {
	// MaxConcurrency caps simultaneous operations in parallel mode
	MaxConcurrency int
	// CompensationTimeout bounds a compensation pass unless the request sets its own
	CompensationTimeout       time.Duration
	CompensationRetryAttempts uint
	CompensationRetryDelay    time.Duration
}

// DefaultProcessorConfig returns the default executor settings
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MaxConcurrency:            5,
		CompensationTimeout:       batch.DefaultCompensationTimeout,
		CompensationRetryAttempts: 3,
		CompensationRetryDelay:    100 * time.Millisecond,
	}
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	d := DefaultProcessorConfig()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	if c.CompensationTimeout <= 0 {
		c.CompensationTimeout = d.CompensationTimeout
	}
	if c.CompensationRetryAttempts == 0 {
		c.CompensationRetryAttempts = d.CompensationRetryAttempts
	}
	if c.CompensationRetryDelay <= 0 {
		c.CompensationRetryDelay = d.CompensationRetryDelay
	}
	return c
}

// SagaBatchProcessor executes batches of state-changing operations against
// the booking store. Each operation commits on its own; when a batch fails
// part-way, successful operations are compensated in reverse completion order.
type SagaBatchProcessor struct {
	bookings       booking.Repository
	accommodations accommodation.Repository
	sagas          batch.SagaTransactionRepository
	archive        batch.TransactionArchive
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BatchMetrics
	jobs           *JobRegistry
	cfg            ProcessorConfig
	logger         *zap.Logger
}

// NewSagaBatchProcessor creates a new SagaBatchProcessor.
// sagas may be nil, in which case transactions are only logged.
func NewSagaBatchProcessor(
	bookings booking.Repository,
	accommodations accommodation.Repository,
	sagas batch.SagaTransactionRepository,
	cfg ProcessorConfig,
	log *zap.Logger,
) *SagaBatchProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &SagaBatchProcessor{
		bookings:       bookings,
		accommodations: accommodations,
		sagas:          sagas,
		jobs:           NewJobRegistry(),
		cfg:            cfg.withDefaults(),
		logger:         log,
	}
}

// SetArchive sets the long-term store finished transactions are copied to
func (p *SagaBatchProcessor) SetArchive(archive batch.TransactionArchive) {
	p.archive = archive
}

// SetEventPublisher sets the event publisher for publishing domain events
func (p *SagaBatchProcessor) SetEventPublisher(publisher shared.EventPublisher) {
	p.eventPublisher = publisher
}

// SetBatchMetrics sets the batch metrics collector
func (p *SagaBatchProcessor) SetBatchMetrics(m *telemetry.BatchMetrics) {
	p.metrics = m
}

// Jobs returns the registry of running jobs
func (p *SagaBatchProcessor) Jobs() *JobRegistry {
	return p.jobs
}

// Config returns the effective executor settings
func (p *SagaBatchProcessor) Config() ProcessorConfig {
	return p.cfg
}

// Execute runs req and reports the outcome of every attempted operation.
//
// Per-operation failures never surface as an error; they are recorded in the
// result. A *batch.ValidationError means nothing was executed. An error
// wrapping batch.ErrProcessor means the stored state is not certainly
// reconciled.
func (p *SagaBatchProcessor) Execute(ctx context.Context, req *batch.BatchRequest, submittedBy string) (*batch.BatchJobResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "Execute",
		telemetry.WithAttribute(telemetry.SpanAttrJobID, req.JobID),
		telemetry.WithAttribute(telemetry.SpanAttrJobName, req.JobName),
		telemetry.WithAttribute(telemetry.SpanAttrOperationCount, len(req.Operations)),
		telemetry.WithAttribute(telemetry.SpanAttrDryRun, req.DryRun),
		telemetry.WithAttribute(telemetry.SpanAttrParallel, req.ParallelExecution),
		telemetry.WithAttribute(telemetry.SpanAttrSubmittedBy, submittedBy),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.IsScheduled() {
		return nil, ErrScheduledNotImplemented
	}

	var (
		result *batch.BatchJobResult
		err    error
	)
	if req.DryRun {
		result, err = p.executeDryRun(ctx, req, submittedBy)
	} else {
		result, err = p.execute(ctx, req, submittedBy)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobStatus, string(result.Status),
		telemetry.SpanAttrTransactionID, result.TransactionID,
	)
	telemetry.SetOK(span)
	return result, nil
}

// executeDryRun runs every operation in describe-only mode.
// There is no validation, no compensation and no audit record.
func (p *SagaBatchProcessor) executeDryRun(ctx context.Context, req *batch.BatchRequest, submittedBy string) (*batch.BatchJobResult, error) {
	startedAt := time.Now()
	ctx, log := logger.WithJobID(ctx, p.logger, req.JobID)
	log.Info("Starting dry run", zap.String("job_name", req.JobName), zap.Int("operations", len(req.Operations)))

	results := make([]*batch.BatchOperationResult, 0, len(req.Operations))
	for _, item := range req.Operations {
		res, err := p.executeOne(ctx, req.JobID, submittedBy, item, true)
		if err != nil {
			return nil, fmt.Errorf("%w: dry run: %w", batch.ErrProcessor, err)
		}
		results = append(results, res)
	}

	successful, failed := countResults(results)
	result := p.buildResult(req, submittedBy, startedAt, results, successful, failed,
		batch.DetermineJobStatus(successful, failed, false, false), nil)
	result.JobName = DryRunPrefix + req.JobName
	result.DryRun = true

	log.Info("Dry run finished", zap.Int("successful", successful), zap.Int("failed", failed))
	return result, nil
}

func (p *SagaBatchProcessor) execute(ctx context.Context, req *batch.BatchRequest, submittedBy string) (*batch.BatchJobResult, error) {
	startedAt := time.Now()

	if err := p.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	jobCtx, release, err := p.jobs.register(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	defer release()

	jobCtx, log := logger.WithJobID(jobCtx, p.logger, req.JobID)
	log.Info("Starting batch job",
		zap.String("job_name", req.JobName),
		zap.Int("operations", len(req.Operations)),
		zap.Bool("parallel", req.ParallelExecution),
		zap.Bool("fail_fast", req.FailFast),
		zap.String("submitted_by", submittedBy),
	)

	tx := batch.NewSagaTransaction(req.JobID, req.JobName, submittedBy, startedAt)
	tx.Status = batch.OperationProcessing

	// The audit record is written whatever the outcome, including the fatal path
	defer func() {
		tx.Complete(time.Now())
		p.persistTransaction(context.WithoutCancel(jobCtx), log, tx)
	}()

	var results []*batch.BatchOperationResult
	var fatal error
	if req.ParallelExecution {
		results, fatal = p.executeParallel(jobCtx, req, submittedBy, tx)
	} else {
		results, fatal = p.executeSequential(jobCtx, req, submittedBy, tx)
	}

	if fatal != nil {
		return nil, p.handleFatal(jobCtx, log, req, tx, results, fatal)
	}

	successful, failed := countResults(results)
	failFastTripped := req.FailFast && failed > 0
	// A cancel that lands after the last operation changes nothing
	cancelled := len(results) < len(req.Operations) && errors.Is(context.Cause(jobCtx), errCancelledByRequest)
	status := batch.DetermineJobStatus(successful, failed, failFastTripped, cancelled)

	compensated := false
	if (failFastTripped || cancelled) && req.EnableCompensation {
		if failFastTripped {
			log.Warn("Batch failed fast, compensating completed operations", zap.Int("failed", failed))
		} else {
			log.Warn("Batch cancelled, compensating completed operations", zap.Error(context.Cause(jobCtx)))
		}
		p.compensate(jobCtx, log, tx, results, p.compensationTimeout(req))
		compensated = true
	}
	tx.Status = transactionStatus(status)

	result := p.buildResult(req, submittedBy, startedAt, results, successful, failed, status, tx)
	log.Info("Batch job finished",
		zap.String("status", string(result.Status)),
		zap.Int("successful", successful),
		zap.Int("failed", failed),
		zap.Int("compensated", result.CompensatedOperations),
		zap.Int64("duration_ms", result.TotalExecutionTimeMs),
	)

	p.publishEvents(context.WithoutCancel(jobCtx), log, result, tx, compensated)
	return result, nil
}

// executeSequential runs operations in list order
func (p *SagaBatchProcessor) executeSequential(ctx context.Context, req *batch.BatchRequest, submittedBy string, tx *batch.SagaTransaction) ([]*batch.BatchOperationResult, error) {
	results := make([]*batch.BatchOperationResult, 0, len(req.Operations))

	for _, item := range req.Operations {
		if ctx.Err() != nil {
			break
		}
		res, err := p.executeOne(context.WithoutCancel(ctx), req.JobID, submittedBy, item, false)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		if res.Success {
			tx.RecordCompleted(item.OperationID)
			continue
		}
		tx.RecordFailed(item.OperationID)
		if req.FailFast {
			break
		}
	}
	return results, nil
}

// executeParallel runs operations concurrently, at most MaxConcurrency at a time.
// With fail-fast, an observed failure keeps operations that have not started
// from starting; they are omitted from the results.
func (p *SagaBatchProcessor) executeParallel(ctx context.Context, req *batch.BatchRequest, submittedBy string, tx *batch.SagaTransaction) ([]*batch.BatchOperationResult, error) {
	slots := make([]*batch.BatchOperationResult, len(req.Operations))
	var (
		mu   sync.Mutex
		stop atomic.Bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrency)

	for i, item := range req.Operations {
		if stop.Load() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if stop.Load() || gctx.Err() != nil {
				return nil
			}
			res, err := p.executeOne(context.WithoutCancel(gctx), req.JobID, submittedBy, item, false)
			if err != nil {
				return err
			}

			mu.Lock()
			slots[i] = res
			if res.Success {
				tx.RecordCompleted(item.OperationID)
			} else {
				tx.RecordFailed(item.OperationID)
			}
			mu.Unlock()

			if !res.Success && req.FailFast {
				stop.Store(true)
			}
			return nil
		})
	}
	err := g.Wait()

	results := make([]*batch.BatchOperationResult, 0, len(slots))
	for _, res := range slots {
		if res != nil {
			results = append(results, res)
		}
	}
	return results, err
}

// executeOne runs a single item. Handler errors and panics become a failed
// result; the returned error is reserved for items no executor can handle.
func (p *SagaBatchProcessor) executeOne(ctx context.Context, jobID, submittedBy string, item *batch.BatchOperationItem, dryRun bool) (res *batch.BatchOperationResult, fatal error) {
	startedAt := time.Now()
	res = &batch.BatchOperationResult{
		OperationID:     item.OperationID,
		TargetID:        item.TargetID,
		OperationType:   item.OperationType,
		Status:          batch.OperationProcessing,
		StartedAt:       &startedAt,
		WarningMessages: []string{},
	}
	log := logger.FromContext(ctx).With(
		zap.String("operation_id", item.OperationID),
		zap.String("operation_type", item.OperationType.String()),
		zap.Int64("target_id", item.TargetID),
	)

	if item.Params == nil {
		p.finishFailed(ctx, log, item, res, batch.CodeMissingParameters, "Operation parameters are required")
		return res, nil
	}
	op, err := p.operationFor(item.Params)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			p.finishFailed(ctx, log, item, res, batch.CodeExecutionException, fmt.Sprintf("panic: %v", r))
		}
	}()

	before, err := p.captureState(ctx, item)
	if err != nil {
		p.finishFailed(ctx, log, item, res, errorCode(err), err.Error())
		return res, nil
	}
	res.BeforeState = before

	var details map[string]any
	telemetry.WithOperationLabels(ctx, item.OperationType.String(), func(ctx context.Context) {
		details, err = op.Apply(ctx, &OperationContext{
			JobID:       jobID,
			SubmittedBy: submittedBy,
			Item:        item,
			DryRun:      dryRun,
		})
	})
	if err != nil {
		p.finishFailed(ctx, log, item, res, errorCode(err), err.Error())
		return res, nil
	}
	res.Details = details

	if !dryRun {
		after, err := p.captureState(ctx, item)
		if err != nil {
			res.WarningMessages = append(res.WarningMessages, fmt.Sprintf("After state unavailable: %v", err))
		} else {
			res.AfterState = after
		}
	}

	completedAt := time.Now()
	res.Status = batch.OperationCompleted
	res.Success = true
	res.CompletedAt = &completedAt
	res.ExecutionTimeMs = completedAt.Sub(startedAt).Milliseconds()
	item.MarkCompleted(completedAt)
	p.metrics.RecordOperation(ctx, item.OperationType.String(), true, completedAt.Sub(startedAt))
	return res, nil
}

func (p *SagaBatchProcessor) finishFailed(ctx context.Context, log *zap.Logger, item *batch.BatchOperationItem, res *batch.BatchOperationResult, code, message string) {
	completedAt := time.Now()
	res.Status = batch.OperationFailed
	res.Success = false
	res.ErrorCode = code
	res.ErrorMessage = message
	res.AfterState = nil
	res.CompletedAt = &completedAt
	if res.StartedAt != nil {
		res.ExecutionTimeMs = completedAt.Sub(*res.StartedAt).Milliseconds()
	}
	item.MarkFailed(completedAt, message)

	log.Error("Batch operation failed", zap.String("error_code", code), zap.String("error", message))
	p.metrics.RecordOperation(ctx, item.OperationType.String(), false, time.Duration(res.ExecutionTimeMs)*time.Millisecond)
}

// handleFatal compensates best-effort and builds the processor error
func (p *SagaBatchProcessor) handleFatal(ctx context.Context, log *zap.Logger, req *batch.BatchRequest, tx *batch.SagaTransaction, results []*batch.BatchOperationResult, fatal error) error {
	log.Error("Batch execution failed", zap.Error(fatal))

	merr := &multierror.Error{ErrorFormat: joinErrors}
	merr = multierror.Append(merr, fatal)
	if req.EnableCompensation {
		for _, compErr := range p.compensate(ctx, log, tx, results, p.compensationTimeout(req)) {
			merr = multierror.Append(merr, compErr)
		}
	}
	tx.Status = batch.OperationFailed

	return fmt.Errorf("%w: batch execution failed: %w", batch.ErrProcessor, merr.ErrorOrNil())
}

func (p *SagaBatchProcessor) compensationTimeout(req *batch.BatchRequest) time.Duration {
	if req.CompensationTimeout > 0 {
		return req.CompensationTimeout
	}
	return p.cfg.CompensationTimeout
}

func (p *SagaBatchProcessor) buildResult(
	req *batch.BatchRequest,
	submittedBy string,
	startedAt time.Time,
	results []*batch.BatchOperationResult,
	successful, failed int,
	status batch.JobStatus,
	tx *batch.SagaTransaction,
) *batch.BatchJobResult {
	completedAt := time.Now()
	result := &batch.BatchJobResult{
		JobID:                req.JobID,
		JobName:              req.JobName,
		Status:               status,
		StartedAt:            startedAt,
		CompletedAt:          &completedAt,
		TotalExecutionTimeMs: completedAt.Sub(startedAt).Milliseconds(),
		TotalOperations:      len(req.Operations),
		SuccessfulOperations: successful,
		FailedOperations:     failed,
		OperationResults:     results,
		HasFailures:          failed > 0,
		FailureSummary:       batch.FailureSummary(results),
		CompensationSummary:  batch.CompensationSummary(tx),
		DryRun:               req.DryRun,
		CreatedBy:            submittedBy,
		CreatedAt:            startedAt,
	}
	if tx != nil {
		result.TransactionID = tx.TransactionID
		result.CompensatedOperations, _ = tx.CompensationCounts()
	}
	return result
}

// persistTransaction records tx for audit. Failures are logged and never
// replace the batch outcome.
func (p *SagaBatchProcessor) persistTransaction(ctx context.Context, log *zap.Logger, tx *batch.SagaTransaction) {
	fields := []zap.Field{
		zap.String("transaction_id", tx.TransactionID),
		zap.String("status", string(tx.Status)),
		zap.Int("completed_operations", len(tx.CompletedOperations)),
		zap.Int("compensation_operations", len(tx.CompensationOperations)),
	}

	if p.sagas != nil {
		if err := p.sagas.Save(ctx, tx); err != nil {
			log.Error("Failed to persist saga transaction", append(fields, zap.Error(err))...)
			return
		}
	}
	log.Info("Saga transaction completed", fields...)

	if p.archive != nil {
		if err := p.archive.Archive(ctx, tx); err != nil {
			log.Error("Failed to archive saga transaction", append(fields, zap.Error(err))...)
		}
	}
}

func (p *SagaBatchProcessor) publishEvents(ctx context.Context, log *zap.Logger, result *batch.BatchJobResult, tx *batch.SagaTransaction, compensated bool) {
	if p.eventPublisher == nil {
		return
	}
	events := []shared.DomainEvent{batch.NewBatchJobCompletedEvent(result)}
	if compensated {
		events = append(events, batch.NewBatchJobCompensatedEvent(tx))
	}
	if err := p.eventPublisher.Publish(ctx, events...); err != nil {
		log.Error("Failed to publish batch events", zap.Error(err))
	}
}

func countResults(results []*batch.BatchOperationResult) (successful, failed int) {
	for _, r := range results {
		if r.Success {
			successful++
		} else {
			failed++
		}
	}
	return successful, failed
}

func transactionStatus(status batch.JobStatus) batch.OperationStatus {
	switch status {
	case batch.JobCompleted:
		return batch.OperationCompleted
	case batch.JobPartiallyCompleted:
		return batch.OperationPartiallyCompleted
	case batch.JobCancelled:
		return batch.OperationCancelled
	}
	return batch.OperationFailed
}

// errorCode classifies a handler error for BatchOperationResult.ErrorCode
func errorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return batch.CodeTimeout
	case errors.Is(err, context.Canceled):
		return batch.CodeCancelled
	}
	if code := shared.ErrorCode(err); code != "" {
		return code
	}
	return batch.CodeExecutionError
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
