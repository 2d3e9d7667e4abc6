package batch

import "github.com/wishup-shore/booking-system-backend/internal/domain/shared"

// AggregateTypeBatchJob is the aggregate type of batch job events
const AggregateTypeBatchJob = "BatchJob"

// Event types
const (
	EventTypeBatchJobCompleted   = "batch.job.completed"
	EventTypeBatchJobCompensated = "batch.job.compensated"
)

// BatchJobCompletedEvent is published after a non-dry-run batch finishes
type BatchJobCompletedEvent struct {
	shared.BaseDomainEvent
	JobID                 string    `json:"job_id"`
	JobName               string    `json:"job_name"`
	TransactionID         string    `json:"transaction_id"`
	Status                JobStatus `json:"status"`
	TotalOperations       int       `json:"total_operations"`
	SuccessfulOperations  int       `json:"successful_operations"`
	FailedOperations      int       `json:"failed_operations"`
	CompensatedOperations int       `json:"compensated_operations"`
	SubmittedBy           string    `json:"submitted_by,omitempty"`
}

// BatchJobCompensatedEvent is published when a compensation pass ran
type BatchJobCompensatedEvent struct {
	shared.BaseDomainEvent
	JobID                 string `json:"job_id"`
	TransactionID         string `json:"transaction_id"`
	SuccessfulCompensated int    `json:"successful_compensations"`
	FailedCompensated     int    `json:"failed_compensations"`
	FailedOperationID     string `json:"failed_operation_id,omitempty"`
}

// NewBatchJobCompletedEvent builds the completion event of result
func NewBatchJobCompletedEvent(result *BatchJobResult) *BatchJobCompletedEvent {
	return &BatchJobCompletedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeBatchJobCompleted, AggregateTypeBatchJob, result.JobID),
		JobID:                 result.JobID,
		JobName:               result.JobName,
		TransactionID:         result.TransactionID,
		Status:                result.Status,
		TotalOperations:       result.TotalOperations,
		SuccessfulOperations:  result.SuccessfulOperations,
		FailedOperations:      result.FailedOperations,
		CompensatedOperations: result.CompensatedOperations,
		SubmittedBy:           result.CreatedBy,
	}
}

// NewBatchJobCompensatedEvent builds the compensation event of tx
func NewBatchJobCompensatedEvent(tx *SagaTransaction) *BatchJobCompensatedEvent {
	succeeded, failed := tx.CompensationCounts()
	return &BatchJobCompensatedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeBatchJobCompensated, AggregateTypeBatchJob, tx.JobID),
		JobID:                 tx.JobID,
		TransactionID:         tx.TransactionID,
		SuccessfulCompensated: succeeded,
		FailedCompensated:     failed,
		FailedOperationID:     tx.FailedOperationID,
	}
}
