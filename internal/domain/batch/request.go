package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// MaxOperationsPerBatch bounds the engine's work per request
const MaxOperationsPerBatch = 1000

// DefaultCompensationTimeout applies when a request does not set one
const DefaultCompensationTimeout = 300 * time.Second

// OperationStatus is the status of one operation, compensation or saga transaction
type OperationStatus string

const (
	OperationPending            OperationStatus = "pending"
	OperationProcessing         OperationStatus = "processing"
	OperationCompleted          OperationStatus = "completed"
	OperationFailed             OperationStatus = "failed"
	OperationPartiallyCompleted OperationStatus = "partially_completed"
	OperationCancelled          OperationStatus = "cancelled"
)

// BatchOperationItem is one unit of work in a batch
type BatchOperationItem struct {
	OperationID   string          `json:"operation_id"`
	TargetID      int64           `json:"target_id"`
	OperationType OperationType   `json:"operation_type"`
	Params        Params          `json:"parameters"`
	Status        OperationStatus `json:"status"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	CompensatedAt *time.Time      `json:"compensated_at,omitempty"`
}

// NewOperationItem creates a pending item whose type is taken from params
func NewOperationItem(targetID int64, params Params) *BatchOperationItem {
	return &BatchOperationItem{
		OperationID:   uuid.New().String(),
		TargetID:      targetID,
		OperationType: params.OperationType(),
		Params:        params,
		Status:        OperationPending,
	}
}

// NewDecodedOperationItem creates a pending item from wire input.
// params may be nil; validation reports it as missing.
func NewDecodedOperationItem(operationID string, targetID int64, opType OperationType, params Params) *BatchOperationItem {
	if operationID == "" {
		operationID = uuid.New().String()
	}
	return &BatchOperationItem{
		OperationID:   operationID,
		TargetID:      targetID,
		OperationType: opType,
		Params:        params,
		Status:        OperationPending,
	}
}

// MarkCompleted records a successful execution
func (i *BatchOperationItem) MarkCompleted(at time.Time) {
	i.Status = OperationCompleted
	i.ErrorMessage = ""
	i.ExecutedAt = &at
}

// MarkFailed records a failed execution
func (i *BatchOperationItem) MarkFailed(at time.Time, message string) {
	i.Status = OperationFailed
	i.ErrorMessage = message
	i.ExecutedAt = &at
}

// Options are the execution flags of a batch
type Options struct {
	DryRun              bool
	FailFast            bool
	ParallelExecution   bool
	EnableCompensation  bool
	CompensationTimeout time.Duration
}

// DefaultOptions returns options with compensation enabled
func DefaultOptions() Options {
	return Options{
		EnableCompensation:  true,
		CompensationTimeout: DefaultCompensationTimeout,
	}
}

// BatchRequest describes one batch job
type BatchRequest struct {
	JobID       string
	JobName     string
	Description string
	Operations  []*BatchOperationItem
	Options
	// ExecuteAt requests scheduled execution, which is not supported
	ExecuteAt *time.Time
}

// NewBatchRequest creates a request with a fresh job id
func NewBatchRequest(jobName, description string, operations []*BatchOperationItem, opts Options) (*BatchRequest, error) {
	req := &BatchRequest{
		JobID:       uuid.New().String(),
		JobName:     jobName,
		Description: description,
		Operations:  operations,
		Options:     opts,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the request envelope; operations are validated by the processor
func (r *BatchRequest) Validate() error {
	if r.JobName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Job name is required")
	}
	if len(r.Operations) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "At least one operation is required")
	}
	if len(r.Operations) > MaxOperationsPerBatch {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Maximum %d operations per batch", MaxOperationsPerBatch))
	}
	if r.CompensationTimeout < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Compensation timeout cannot be negative")
	}
	return nil
}

// IsScheduled reports whether the request asks for deferred execution
func (r *BatchRequest) IsScheduled() bool {
	return r.ExecuteAt != nil
}
