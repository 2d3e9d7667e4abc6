package batch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// Params is the typed parameter set of one batch operation.
// Each executable OperationType has exactly one implementation.
type Params interface {
	OperationType() OperationType
	Validate() error
}

// StatusUpdateParams moves a booking to NewStatus
type StatusUpdateParams struct {
	NewStatus     booking.Status `json:"new_status"`
	Reason        string         `json:"reason,omitempty"`
	NotifyClients bool           `json:"notify_clients"`
}

// OperationType implements Params
func (p *StatusUpdateParams) OperationType() OperationType { return OpBookingStatusUpdate }

// Validate implements Params
func (p *StatusUpdateParams) Validate() error {
	if !p.NewStatus.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid booking status: %s", p.NewStatus))
	}
	return nil
}

// CancelParams cancels a booking and records the reason in its comments
type CancelParams struct {
	Reason        string           `json:"cancellation_reason"`
	RefundAmount  *decimal.Decimal `json:"refund_amount,omitempty"`
	NotifyClients bool             `json:"notify_clients"`
}

// OperationType implements Params
func (p *CancelParams) OperationType() OperationType { return OpBookingCancel }

// Validate implements Params
func (p *CancelParams) Validate() error {
	if p.Reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancellation reason is required")
	}
	if p.RefundAmount != nil && p.RefundAmount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Refund amount cannot be negative")
	}
	return nil
}

// SetDatesParams assigns a stay to an open-dates booking, optionally moving it
// to AccommodationID
type SetDatesParams struct {
	Range                booking.DateRange
	AccommodationID      *int64
	ValidateAvailability bool
}

type setDatesWire struct {
	CheckInDate          string `json:"check_in_date"`
	CheckOutDate         string `json:"check_out_date"`
	AccommodationID      *int64 `json:"accommodation_id,omitempty"`
	ValidateAvailability bool   `json:"validate_availability"`
}

// OperationType implements Params
func (p *SetDatesParams) OperationType() OperationType { return OpBookingSetDates }

// Validate implements Params
func (p *SetDatesParams) Validate() error {
	if !p.Range.IsValid() {
		return shared.NewDomainError("INVALID_DATE_RANGE", "check-in must be before check-out")
	}
	return nil
}

// MarshalJSON renders dates as YYYY-MM-DD
func (p *SetDatesParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(setDatesWire{
		CheckInDate:          p.Range.CheckIn.Format(booking.DateLayout),
		CheckOutDate:         p.Range.CheckOut.Format(booking.DateLayout),
		AccommodationID:      p.AccommodationID,
		ValidateAvailability: p.ValidateAvailability,
	})
}

// AccommodationStatusParams changes an accommodation's status and optionally its condition
type AccommodationStatusParams struct {
	NewStatus        accommodation.Status     `json:"new_status"`
	NewCondition     *accommodation.Condition `json:"new_condition,omitempty"`
	Reason           string                   `json:"reason,omitempty"`
	MaintenanceNotes string                   `json:"maintenance_notes,omitempty"`
}

// OperationType implements Params
func (p *AccommodationStatusParams) OperationType() OperationType { return OpAccommodationStatusUpdate }

// Validate implements Params
func (p *AccommodationStatusParams) Validate() error {
	if !p.NewStatus.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid accommodation status: %s", p.NewStatus))
	}
	if p.NewCondition != nil && !p.NewCondition.IsValid() {
		return shared.NewDomainError("INVALID_CONDITION", fmt.Sprintf("Invalid accommodation condition: %s", *p.NewCondition))
	}
	return nil
}

// RawParams carries parameters of operation types that have no executor
type RawParams struct {
	Type   OperationType
	Values map[string]any
}

// OperationType implements Params
func (p *RawParams) OperationType() OperationType { return p.Type }

// Validate implements Params
func (p *RawParams) Validate() error { return nil }

// MarshalJSON renders the raw values
func (p *RawParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Values)
}

// DecodeParams decodes the wire parameters of an operation of type t.
// Absent or empty parameters decode to nil so that batch validation can
// report them as missing.
func DecodeParams(t OperationType, raw json.RawMessage) (Params, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}

	var p Params
	switch t {
	case OpBookingStatusUpdate:
		var w struct {
			NewStatus     string `json:"new_status"`
			Reason        string `json:"reason"`
			NotifyClients bool   `json:"notify_clients"`
		}
		if err := decodeStrict(trimmed, &w); err != nil {
			return nil, err
		}
		status, err := booking.ParseStatus(w.NewStatus)
		if err != nil {
			return nil, err
		}
		p = &StatusUpdateParams{NewStatus: status, Reason: w.Reason, NotifyClients: w.NotifyClients}

	case OpBookingCancel:
		var w CancelParams
		if err := decodeStrict(trimmed, &w); err != nil {
			return nil, err
		}
		p = &w

	case OpBookingSetDates:
		var w setDatesWire
		if err := decodeStrict(trimmed, &w); err != nil {
			return nil, err
		}
		checkIn, err := booking.ParseDate(w.CheckInDate)
		if err != nil {
			return nil, err
		}
		checkOut, err := booking.ParseDate(w.CheckOutDate)
		if err != nil {
			return nil, err
		}
		p = &SetDatesParams{
			Range:                booking.DateRange{CheckIn: checkIn, CheckOut: checkOut},
			AccommodationID:      w.AccommodationID,
			ValidateAvailability: w.ValidateAvailability,
		}

	case OpAccommodationStatusUpdate:
		var w struct {
			NewStatus        string  `json:"new_status"`
			NewCondition     *string `json:"new_condition"`
			Reason           string  `json:"reason"`
			MaintenanceNotes string  `json:"maintenance_notes"`
		}
		if err := decodeStrict(trimmed, &w); err != nil {
			return nil, err
		}
		status, err := accommodation.ParseStatus(w.NewStatus)
		if err != nil {
			return nil, err
		}
		ap := &AccommodationStatusParams{NewStatus: status, Reason: w.Reason, MaintenanceNotes: w.MaintenanceNotes}
		if w.NewCondition != nil && *w.NewCondition != "" {
			cond, err := accommodation.ParseCondition(*w.NewCondition)
			if err != nil {
				return nil, err
			}
			ap.NewCondition = &cond
		}
		p = ap

	default:
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_OPERATION_TYPE", fmt.Sprintf("Invalid operation type: %s", t))
		}
		values := map[string]any{}
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, shared.NewDomainError("INVALID_PARAMETERS", fmt.Sprintf("Invalid parameters for %s: %v", t, err))
		}
		p = &RawParams{Type: t, Values: values}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeStrict decodes a single JSON object into v, rejecting unknown fields
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return shared.NewDomainError("INVALID_PARAMETERS", fmt.Sprintf("Invalid operation parameters: %v", err))
	}
	if dec.More() {
		return shared.NewDomainError("INVALID_PARAMETERS", "Invalid operation parameters: unexpected data after object")
	}
	return nil
}
