package batch

import (
	"time"

	"github.com/google/uuid"
)

// EntityState is a field-name to value projection of an entity's mutable fields
type EntityState map[string]any

// String returns the string value of field, or "" when absent or not a string
func (s EntityState) String(field string) (string, bool) {
	v, ok := s[field].(string)
	return v, ok
}

// BatchOperationResult is the outcome of executing one item
type BatchOperationResult struct {
	OperationID     string          `json:"operation_id"`
	TargetID        int64           `json:"target_id"`
	OperationType   OperationType   `json:"operation_type"`
	Status          OperationStatus `json:"status"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`

	Success         bool     `json:"success"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	ErrorCode       string   `json:"error_code,omitempty"`
	WarningMessages []string `json:"warning_messages"`
	// Details is what the executor reported: the intended action in a dry run,
	// the applied change otherwise
	Details map[string]any `json:"details,omitempty"`

	BeforeState EntityState `json:"before_state"`
	AfterState  EntityState `json:"after_state"`

	CompensationOperationID string `json:"compensation_operation_id,omitempty"`
	Compensated             bool   `json:"compensated"`
	CompensationError       string `json:"compensation_error,omitempty"`
}

// CompensationData is what a compensation needs to restore its target
type CompensationData struct {
	TargetID    int64       `json:"target_id"`
	BeforeState EntityState `json:"before_state"`
	AfterState  EntityState `json:"after_state"`
}

// CompensationOperation undoes one successful operation
type CompensationOperation struct {
	CompensationID      string           `json:"compensation_id"`
	OriginalOperationID string           `json:"original_operation_id"`
	CompensationType    string           `json:"compensation_type"`
	CompensationData    CompensationData `json:"compensation_data"`
	Status              OperationStatus  `json:"status"`
	ExecutedAt          *time.Time       `json:"executed_at,omitempty"`
	ErrorMessage        string           `json:"error_message,omitempty"`
}

// NewCompensationOperation derives the compensation of a successful result
func NewCompensationOperation(result *BatchOperationResult) *CompensationOperation {
	return &CompensationOperation{
		CompensationID:      uuid.New().String(),
		OriginalOperationID: result.OperationID,
		CompensationType:    result.OperationType.CompensationType(),
		CompensationData: CompensationData{
			TargetID:    result.TargetID,
			BeforeState: result.BeforeState,
			AfterState:  result.AfterState,
		},
		Status: OperationPending,
	}
}

// MarkCompleted records a successful compensation
func (c *CompensationOperation) MarkCompleted(at time.Time) {
	c.Status = OperationCompleted
	c.ExecutedAt = &at
}

// MarkFailed records a failed compensation
func (c *CompensationOperation) MarkFailed(at time.Time, message string) {
	c.Status = OperationFailed
	c.ExecutedAt = &at
	c.ErrorMessage = message
}

// SagaTransaction tracks one batch run for audit and compensation
type SagaTransaction struct {
	TransactionID       string          `json:"transaction_id"`
	JobID               string          `json:"job_id"`
	JobName             string          `json:"job_name"`
	SubmittedBy         string          `json:"submitted_by,omitempty"`
	Status              OperationStatus `json:"status"`
	CompletedOperations []string        `json:"completed_operations"`
	FailedOperationID   string          `json:"failed_operation_id,omitempty"`

	// CompensationOperations stays empty until a compensation pass runs
	CompensationOperations []*CompensationOperation `json:"compensation_operations"`
	CompensationStatus     OperationStatus          `json:"compensation_status"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewSagaTransaction starts tracking a batch job
func NewSagaTransaction(jobID, jobName, submittedBy string, startedAt time.Time) *SagaTransaction {
	return &SagaTransaction{
		TransactionID:          uuid.New().String(),
		JobID:                  jobID,
		JobName:                jobName,
		SubmittedBy:            submittedBy,
		Status:                 OperationPending,
		CompletedOperations:    []string{},
		CompensationOperations: []*CompensationOperation{},
		CompensationStatus:     OperationPending,
		StartedAt:              startedAt,
	}
}

// RecordCompleted appends a successful operation in completion order
func (t *SagaTransaction) RecordCompleted(operationID string) {
	t.CompletedOperations = append(t.CompletedOperations, operationID)
}

// RecordFailed remembers the first failing operation
func (t *SagaTransaction) RecordFailed(operationID string) {
	if t.FailedOperationID == "" {
		t.FailedOperationID = operationID
	}
}

// Complete stamps the completion time
func (t *SagaTransaction) Complete(at time.Time) {
	t.CompletedAt = &at
}

// CompensationCounts returns the number of successful and failed compensations
func (t *SagaTransaction) CompensationCounts() (succeeded, failed int) {
	for _, c := range t.CompensationOperations {
		switch c.Status {
		case OperationCompleted:
			succeeded++
		case OperationFailed:
			failed++
		}
	}
	return succeeded, failed
}

// JobStatus is the externally visible status of a batch job
type JobStatus string

const (
	JobQueued             JobStatus = "queued"
	JobRunning            JobStatus = "running"
	JobCompleted          JobStatus = "completed"
	JobPartiallyCompleted JobStatus = "partially_completed"
	JobFailed             JobStatus = "failed"
	JobCancelled          JobStatus = "cancelled"
)

// DetermineJobStatus derives the job status from the run's outcome.
// A tripped fail-fast marks the job failed even if some operations succeeded,
// since those were rolled back or are about to be.
func DetermineJobStatus(successful, failed int, failFastTripped, cancelled bool) JobStatus {
	switch {
	case cancelled:
		return JobCancelled
	case failed == 0:
		return JobCompleted
	case failFastTripped, successful == 0:
		return JobFailed
	default:
		return JobPartiallyCompleted
	}
}

// BatchJobResult summarizes one executed batch
type BatchJobResult struct {
	JobID         string    `json:"job_id"`
	JobName       string    `json:"job_name"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Status        JobStatus `json:"status"`

	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	TotalExecutionTimeMs int64      `json:"total_execution_time_ms"`

	TotalOperations       int `json:"total_operations"`
	SuccessfulOperations  int `json:"successful_operations"`
	FailedOperations      int `json:"failed_operations"`
	CompensatedOperations int `json:"compensated_operations"`

	OperationResults []*BatchOperationResult `json:"operation_results"`

	HasFailures         bool   `json:"has_failures"`
	FailureSummary      string `json:"failure_summary,omitempty"`
	CompensationSummary string `json:"compensation_summary,omitempty"`

	DryRun    bool      `json:"dry_run"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
