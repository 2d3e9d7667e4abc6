package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcessor wraps every processor-level failure that escapes ExecuteBatch.
	// When it is returned the stored state is not certainly reconciled.
	ErrProcessor = errors.New("batch processing failed")
	// ErrNoOperationHandler means an item's type has no executor
	ErrNoOperationHandler = errors.New("no handler found for operation type")
	// ErrNoCompensationHandler means a compensation type cannot be resolved
	ErrNoCompensationHandler = errors.New("no compensation handler for operation type")
	// ErrJobNotRunning is returned when cancelling a job this process is not executing
	ErrJobNotRunning = errors.New("batch job is not running")
)

// Validation and execution error codes
const (
	CodeMissingParameters   = "MISSING_PARAMETERS"
	CodeEntityNotFound      = "ENTITY_NOT_FOUND"
	CodeBookingNotFound     = "BOOKING_NOT_FOUND"
	CodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	CodeNotCancellable      = "NOT_CANCELLABLE"
	CodeNotOpenDates        = "NOT_OPEN_DATES"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
	CodeNotAvailable        = "NOT_AVAILABLE"
	CodeAccommodationAbsent = "ACCOMMODATION_NOT_FOUND"
	CodeNotPending          = "NOT_PENDING"
	CodePaymentRequired     = "PAYMENT_REQUIRED"
	CodeNoAccommodation     = "NO_ACCOMMODATION_AVAILABLE"

	CodeExecutionError     = "EXECUTION_ERROR"
	CodeExecutionException = "EXECUTION_EXCEPTION"
	CodeTimeout            = "TIMEOUT"
	CodeCancelled          = "CANCELLED"
	CodeUnknown            = "UNKNOWN_ERROR"
)

// ValidationIssue is one violation found before execution
type ValidationIssue struct {
	OperationID  string `json:"operation_id,omitempty"`
	TargetID     int64  `json:"target_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// ValidationError rejects a whole batch before any mutation.
// All violations are collected, not just the first.
type ValidationError struct {
	Summary string
	Issues  []ValidationIssue
}

// NewValidationError creates a ValidationError with the given summary prefix
func NewValidationError(summary string, issues []ValidationIssue) *ValidationError {
	return &ValidationError{Summary: summary, Issues: issues}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Summary, strings.Join(e.Messages(), "; "))
}

// Messages returns the violation messages in discovery order
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.ErrorMessage
	}
	return msgs
}

// ValidationResult reports the outcome of generic batch validation
type ValidationResult struct {
	IsValid             bool              `json:"is_valid"`
	Errors              []ValidationIssue `json:"errors"`
	Warnings            []string          `json:"warnings"`
	ValidatedOperations int               `json:"validated_operations"`
	InvalidOperations   int               `json:"invalid_operations"`
}
