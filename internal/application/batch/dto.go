package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
)

// ==================== Business operation DTOs ====================

// BulkStatusUpdateRequest moves every listed booking to NewStatus
type BulkStatusUpdateRequest struct {
	BookingIDs    []int64 `json:"booking_ids" binding:"required,min=1,max=1000,dive,gt=0"`
	NewStatus     string  `json:"new_status" binding:"required"`
	Reason        string  `json:"reason" binding:"max=500"`
	NotifyClients bool    `json:"notify_clients"`
}

// BulkCancelRequest cancels every listed booking
type BulkCancelRequest struct {
	BookingIDs         []int64          `json:"booking_ids" binding:"required,min=1,max=1000,dive,gt=0"`
	CancellationReason string           `json:"cancellation_reason" binding:"required,min=1,max=500"`
	RefundAmount       *decimal.Decimal `json:"refund_amount"`
	// NotifyClients defaults to true
	NotifyClients *bool `json:"notify_clients"`
}

// DateAssignment assigns a stay to one open-dates booking
type DateAssignment struct {
	BookingID       int64  `json:"booking_id" binding:"required,gt=0"`
	CheckInDate     string `json:"check_in_date" binding:"required,datetime=2006-01-02"`
	CheckOutDate    string `json:"check_out_date" binding:"required,datetime=2006-01-02"`
	AccommodationID *int64 `json:"accommodation_id" binding:"omitempty,gt=0"`
}

// BulkSetDatesRequest assigns dates to open-dates bookings
type BulkSetDatesRequest struct {
	Assignments []DateAssignment `json:"booking_date_assignments" binding:"required,min=1,max=1000,dive"`
	// ValidateAvailability defaults to true
	ValidateAvailability *bool `json:"validate_availability"`
}

// BulkAccommodationStatusRequest changes the status of every listed accommodation
type BulkAccommodationStatusRequest struct {
	AccommodationIDs []int64 `json:"accommodation_ids" binding:"required,min=1,max=1000,dive,gt=0"`
	NewStatus        string  `json:"new_status" binding:"required"`
	NewCondition     *string `json:"new_condition"`
	Reason           string  `json:"reason" binding:"max=500"`
	MaintenanceNotes string  `json:"maintenance_notes" binding:"max=2000"`
}

// BulkConfirmRequest confirms pending bookings
type BulkConfirmRequest struct {
	BookingIDs         []int64 `json:"booking_ids" binding:"required,min=1,max=1000,dive,gt=0"`
	RequireFullPayment bool    `json:"require_full_payment"`
	// SendConfirmationEmails defaults to true
	SendConfirmationEmails *bool  `json:"send_confirmation_emails"`
	ConfirmationMessage    string `json:"confirmation_message" binding:"max=2000"`
}

// BulkDateAssignmentRequest assigns dates and, optionally, accommodations
type BulkDateAssignmentRequest struct {
	Assignments []DateAssignment `json:"assignments" binding:"required,min=1,max=1000,dive"`
	// ValidateAccommodationAvailability defaults to true
	ValidateAccommodationAvailability *bool   `json:"validate_accommodation_availability"`
	AutoAssignAccommodations          bool    `json:"auto_assign_accommodations"`
	PreferredAccommodationTypes       []int64 `json:"preferred_accommodation_types"`
}

// ==================== Generic execute DTOs ====================

// OperationInput is one operation of a generic batch request
type OperationInput struct {
	OperationID   string          `json:"operation_id"`
	TargetID      int64           `json:"target_id" binding:"required"`
	OperationType string          `json:"operation_type" binding:"required"`
	Parameters    json.RawMessage `json:"parameters"`
}

// ExecuteBatchRequest is the wire form of a batch.BatchRequest
type ExecuteBatchRequest struct {
	JobID             string           `json:"job_id"`
	JobName           string           `json:"job_name" binding:"required,min=1,max=200"`
	Description       string           `json:"description"`
	Operations        []OperationInput `json:"operations" binding:"required,min=1,max=1000,dive"`
	DryRun            bool             `json:"dry_run"`
	FailFast          bool             `json:"fail_fast"`
	ParallelExecution bool             `json:"parallel_execution"`
	// EnableCompensation defaults to true
	EnableCompensation         *bool      `json:"enable_compensation"`
	CompensationTimeoutSeconds int        `json:"compensation_timeout_seconds" binding:"omitempty,min=1,max=3600"`
	ExecuteAt                  *time.Time `json:"execute_at"`
}

// ToBatchRequest decodes every operation's typed parameters
func (r *ExecuteBatchRequest) ToBatchRequest() (*batch.BatchRequest, error) {
	items := make([]*batch.BatchOperationItem, 0, len(r.Operations))
	for i, in := range r.Operations {
		opType, err := batch.ParseOperationType(in.OperationType)
		if err != nil {
			return nil, err
		}
		params, err := batch.DecodeParams(opType, in.Parameters)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		items = append(items, batch.NewDecodedOperationItem(in.OperationID, in.TargetID, opType, params))
	}

	opts := batch.DefaultOptions()
	opts.DryRun = r.DryRun
	opts.FailFast = r.FailFast
	opts.ParallelExecution = r.ParallelExecution
	opts.EnableCompensation = boolOr(r.EnableCompensation, true)
	if r.CompensationTimeoutSeconds > 0 {
		opts.CompensationTimeout = time.Duration(r.CompensationTimeoutSeconds) * time.Second
	}

	req, err := batch.NewBatchRequest(r.JobName, r.Description, items, opts)
	if err != nil {
		return nil, err
	}
	if r.JobID != "" {
		req.JobID = r.JobID
	}
	req.ExecuteAt = r.ExecuteAt
	return req, nil
}

// ==================== Responses ====================

// DryRunPreview is the compact per-operation view returned by validation
type DryRunPreview struct {
	OperationID   string              `json:"operation_id"`
	TargetID      int64               `json:"target_id"`
	OperationType batch.OperationType `json:"operation_type"`
	Success       bool                `json:"success"`
	ErrorMessage  string              `json:"error_message,omitempty"`
}

// ValidateBatchResponse reports whether a generic batch would pass validation
type ValidateBatchResponse struct {
	Valid                    bool            `json:"valid"`
	EstimatedExecutionTimeMs int64           `json:"estimated_execution_time_ms,omitempty"`
	TotalOperations          int             `json:"total_operations,omitempty"`
	DryRunResults            []DryRunPreview `json:"dry_run_results,omitempty"`
	Error                    string          `json:"error,omitempty"`
	ValidationFailed         bool            `json:"validation_failed,omitempty"`
}

// JobStatusResponse is the recorded state of one job
type JobStatusResponse struct {
	JobID        string                  `json:"job_id"`
	Running      bool                    `json:"running"`
	Transactions []batch.SagaTransaction `json:"transactions"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
