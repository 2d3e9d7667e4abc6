package batch

import (
	"fmt"
	"strings"

	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// OperationType tags the kind of state change a batch item performs
type OperationType string

const (
	OpBookingStatusUpdate       OperationType = "booking_status_update"
	OpBookingCancel             OperationType = "booking_cancel"
	OpBookingSetDates           OperationType = "booking_set_dates"
	OpAccommodationStatusUpdate OperationType = "accommodation_status_update"

	// Declared for API compatibility; no executor handles them yet.
	OpBookingPaymentAdd OperationType = "booking_payment_add"
	OpClientUpdate      OperationType = "client_update"
	OpInventoryAssign   OperationType = "inventory_assign"
	OpCustomItemAdd     OperationType = "custom_item_add"
)

// compensationPrefix prefixes the operation type in CompensationOperation.CompensationType
const compensationPrefix = "compensate_"

// ParseOperationType validates s as an OperationType
func ParseOperationType(s string) (OperationType, error) {
	t := OperationType(s)
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_OPERATION_TYPE", fmt.Sprintf("Invalid operation type: %s", s))
	}
	return t, nil
}

// IsValid checks if the type belongs to the closed set of operation types
func (t OperationType) IsValid() bool {
	switch t {
	case OpBookingStatusUpdate, OpBookingCancel, OpBookingSetDates, OpAccommodationStatusUpdate,
		OpBookingPaymentAdd, OpClientUpdate, OpInventoryAssign, OpCustomItemAdd:
		return true
	}
	return false
}

// String returns the string representation of OperationType
func (t OperationType) String() string {
	return string(t)
}

// TargetKind returns the kind of entity the operation's target id refers to
func (t OperationType) TargetKind() EntityKind {
	switch t {
	case OpBookingStatusUpdate, OpBookingCancel, OpBookingSetDates,
		OpBookingPaymentAdd, OpInventoryAssign, OpCustomItemAdd:
		return EntityBooking
	case OpAccommodationStatusUpdate:
		return EntityAccommodation
	case OpClientUpdate:
		return EntityClient
	}
	return ""
}

// CompensationType returns the compensation tag for the operation type
func (t OperationType) CompensationType() string {
	return compensationPrefix + string(t)
}

// OperationTypeFromCompensation strips the compensation prefix and resolves
// the original operation type
func OperationTypeFromCompensation(compensationType string) (OperationType, error) {
	if !strings.HasPrefix(compensationType, compensationPrefix) {
		return "", fmt.Errorf("%w: %s", ErrNoCompensationHandler, compensationType)
	}
	t, err := ParseOperationType(strings.TrimPrefix(compensationType, compensationPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoCompensationHandler, compensationType)
	}
	return t, nil
}

// EntityKind names a kind of record in the entity store
type EntityKind string

const (
	EntityBooking       EntityKind = "booking"
	EntityAccommodation EntityKind = "accommodation"
	EntityClient        EntityKind = "client"
)
