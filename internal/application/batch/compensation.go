package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"go.uber.org/zap"
)

// compensate undoes the successful operations of tx, most recent completion
// first. Every compensation is attempted even when earlier ones fail; the
// pass stops only at its deadline, which is detached from ctx's cancellation.
// It returns the errors of the failed compensations.
func (p *SagaBatchProcessor) compensate(ctx context.Context, log *zap.Logger, tx *batch.SagaTransaction, results []*batch.BatchOperationResult, timeout time.Duration) []error {
	byID := make(map[string]*batch.BatchOperationResult, len(results))
	for _, r := range results {
		byID[r.OperationID] = r
	}

	comps := make([]*batch.CompensationOperation, 0, len(tx.CompletedOperations))
	compResults := make([]*batch.BatchOperationResult, 0, len(tx.CompletedOperations))
	for i := len(tx.CompletedOperations) - 1; i >= 0; i-- {
		r, ok := byID[tx.CompletedOperations[i]]
		if !ok || !r.Success {
			continue
		}
		comps = append(comps, batch.NewCompensationOperation(r))
		compResults = append(compResults, r)
	}
	tx.CompensationOperations = comps
	if len(comps) == 0 {
		tx.CompensationStatus = batch.OperationCompleted
		return nil
	}

	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var errs []error
	for i, comp := range comps {
		r := compResults[i]
		r.CompensationOperationID = comp.CompensationID

		if compCtx.Err() != nil {
			err := fmt.Errorf("compensation %s not attempted: deadline of %s exceeded", comp.CompensationID, timeout)
			p.failCompensation(compCtx, log, comp, r, err)
			errs = append(errs, err)
			continue
		}

		if err := p.runCompensation(compCtx, comp); err != nil {
			p.failCompensation(compCtx, log, comp, r, err)
			errs = append(errs, fmt.Errorf("compensating operation %s: %w", comp.OriginalOperationID, err))
			continue
		}

		now := time.Now()
		comp.MarkCompleted(now)
		r.Compensated = true
		p.metrics.RecordCompensation(compCtx, r.OperationType.String(), true)
		log.Info("Compensated batch operation",
			zap.String("compensation_id", comp.CompensationID),
			zap.String("operation_id", comp.OriginalOperationID),
		)
	}

	succeeded, failed := tx.CompensationCounts()
	switch {
	case failed == 0:
		tx.CompensationStatus = batch.OperationCompleted
	case succeeded == 0:
		tx.CompensationStatus = batch.OperationFailed
	default:
		tx.CompensationStatus = batch.OperationPartiallyCompleted
	}
	return errs
}

// runCompensation resolves the handler of comp and retries its write
func (p *SagaBatchProcessor) runCompensation(ctx context.Context, comp *batch.CompensationOperation) error {
	opType, err := batch.OperationTypeFromCompensation(comp.CompensationType)
	if err != nil {
		return err
	}
	op, err := p.compensatorFor(opType)
	if err != nil {
		return err
	}

	return retry.Do(
		func() error {
			return op.Compensate(ctx, comp)
		},
		retry.Context(ctx),
		retry.Attempts(p.cfg.CompensationRetryAttempts),
		retry.Delay(p.cfg.CompensationRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableCompensationError),
	)
}

// isRetryableCompensationError rejects errors a retry cannot fix
func isRetryableCompensationError(err error) bool {
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var domainErr *shared.DomainError
	return !errors.As(err, &domainErr)
}

func (p *SagaBatchProcessor) failCompensation(ctx context.Context, log *zap.Logger, comp *batch.CompensationOperation, r *batch.BatchOperationResult, err error) {
	comp.MarkFailed(time.Now(), err.Error())
	r.CompensationError = err.Error()
	p.metrics.RecordCompensation(ctx, r.OperationType.String(), false)
	log.Error("Compensation operation failed",
		zap.String("compensation_id", comp.CompensationID),
		zap.String("operation_id", comp.OriginalOperationID),
		zap.Error(err),
	)
}
