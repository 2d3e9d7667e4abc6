package batch

import (
	"context"
	"fmt"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BatchJobAuditHandler logs finished batch jobs and feeds the job metrics
type BatchJobAuditHandler struct {
	metrics *telemetry.BatchMetrics
	logger  *zap.Logger
}

// NewBatchJobAuditHandler creates a new handler for batch job events.
// metrics may be nil.
func NewBatchJobAuditHandler(metrics *telemetry.BatchMetrics, logger *zap.Logger) *BatchJobAuditHandler {
	return &BatchJobAuditHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BatchJobAuditHandler) EventTypes() []string {
	return []string{batch.EventTypeBatchJobCompleted, batch.EventTypeBatchJobCompensated}
}

// Handle processes BatchJobCompletedEvent and BatchJobCompensatedEvent
func (h *BatchJobAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *batch.BatchJobCompletedEvent:
		h.logger.Info("batch job completed",
			zap.String("job_id", e.JobID),
			zap.String("job_name", e.JobName),
			zap.String("transaction_id", e.TransactionID),
			zap.String("status", string(e.Status)),
			zap.Int("total_operations", e.TotalOperations),
			zap.Int("successful_operations", e.SuccessfulOperations),
			zap.Int("failed_operations", e.FailedOperations),
			zap.String("submitted_by", e.SubmittedBy),
		)
		h.metrics.RecordJob(ctx, string(e.Status), e.SuccessfulOperations, e.FailedOperations)
		return nil

	case *batch.BatchJobCompensatedEvent:
		fields := []zap.Field{
			zap.String("job_id", e.JobID),
			zap.String("transaction_id", e.TransactionID),
			zap.Int("successful_compensations", e.SuccessfulCompensated),
			zap.Int("failed_compensations", e.FailedCompensated),
			zap.String("failed_operation_id", e.FailedOperationID),
		}
		// Partial rollback leaves data the operator has to reconcile
		if e.FailedCompensated > 0 {
			h.logger.Error("batch job partially compensated", fields...)
		} else {
			h.logger.Info("batch job compensated", fields...)
		}
		h.metrics.RecordCompensatedJob(ctx, e.FailedCompensated == 0)
		return nil
	}

	h.logger.Error("unexpected event type",
		zap.String("expected", batch.EventTypeBatchJobCompleted),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s or %s, got %s",
		batch.EventTypeBatchJobCompleted, batch.EventTypeBatchJobCompensated, event.EventType())
}
