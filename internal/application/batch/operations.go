package batch

import (
	"context"
	"fmt"

	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// OperationContext carries one item through a forward handler
type OperationContext struct {
	JobID       string
	SubmittedBy string
	Item        *batch.BatchOperationItem
	DryRun      bool
}

// Operation is the forward and compensating behavior of one operation type.
// Apply must check DryRun before touching the store.
type Operation interface {
	Apply(ctx context.Context, oc *OperationContext) (map[string]any, error)
	Compensate(ctx context.Context, comp *batch.CompensationOperation) error
}

// operationFor selects the executor of params' variant
func (p *SagaBatchProcessor) operationFor(params batch.Params) (Operation, error) {
	switch prm := params.(type) {
	case *batch.StatusUpdateParams:
		return &bookingStatusUpdate{bookings: p.bookings, params: prm}, nil
	case *batch.CancelParams:
		return &bookingCancel{bookings: p.bookings, params: prm}, nil
	case *batch.SetDatesParams:
		return &bookingSetDates{bookings: p.bookings, params: prm}, nil
	case *batch.AccommodationStatusParams:
		return &accommodationStatusUpdate{accommodations: p.accommodations, params: prm}, nil
	}
	return nil, fmt.Errorf("%w: %s", batch.ErrNoOperationHandler, params.OperationType())
}

// compensatorFor selects the compensating handler of an operation type
func (p *SagaBatchProcessor) compensatorFor(t batch.OperationType) (Operation, error) {
	switch t {
	case batch.OpBookingStatusUpdate:
		return &bookingStatusUpdate{bookings: p.bookings}, nil
	case batch.OpBookingCancel:
		return &bookingCancel{bookings: p.bookings}, nil
	case batch.OpBookingSetDates:
		return &bookingSetDates{bookings: p.bookings}, nil
	case batch.OpAccommodationStatusUpdate:
		return &accommodationStatusUpdate{accommodations: p.accommodations}, nil
	}
	return nil, fmt.Errorf("%w: %s", batch.ErrNoCompensationHandler, t)
}

// ==================== Booking status ====================

type bookingStatusUpdate struct {
	bookings booking.Repository
	params   *batch.StatusUpdateParams
}

func (o *bookingStatusUpdate) Apply(ctx context.Context, oc *OperationContext) (map[string]any, error) {
	id := oc.Item.TargetID
	if oc.DryRun {
		return map[string]any{
			"action":     "update_booking_status",
			"target_id":  id,
			"new_status": o.params.NewStatus.String(),
		}, nil
	}

	if err := o.bookings.UpdateFields(ctx, id, map[string]any{
		booking.FieldStatus: o.params.NewStatus.String(),
	}); err != nil {
		return nil, err
	}
	return map[string]any{"updated_booking_id": id, "new_status": o.params.NewStatus.String()}, nil
}

func (o *bookingStatusUpdate) Compensate(ctx context.Context, comp *batch.CompensationOperation) error {
	status, err := beforeString(comp, batch.StateStatus)
	if err != nil {
		return err
	}
	return o.bookings.UpdateFields(ctx, comp.CompensationData.TargetID, map[string]any{
		booking.FieldStatus: status,
	})
}

// ==================== Booking cancel ====================

type bookingCancel struct {
	bookings booking.Repository
	params   *batch.CancelParams
}

func (o *bookingCancel) Apply(ctx context.Context, oc *OperationContext) (map[string]any, error) {
	id := oc.Item.TargetID
	if oc.DryRun {
		details := map[string]any{
			"action":    "cancel_booking",
			"target_id": id,
			"reason":    o.params.Reason,
		}
		if o.params.RefundAmount != nil {
			details["refund_amount"] = o.params.RefundAmount.StringFixed(2)
		}
		return details, nil
	}

	b, err := o.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.bookings.UpdateFields(ctx, id, map[string]any{
		booking.FieldStatus:   booking.StatusCancelled.String(),
		booking.FieldComments: b.CommentsWithCancellation(o.params.Reason),
	}); err != nil {
		return nil, err
	}
	return map[string]any{"cancelled_booking_id": id, "reason": o.params.Reason}, nil
}

func (o *bookingCancel) Compensate(ctx context.Context, comp *batch.CompensationOperation) error {
	status, err := beforeString(comp, batch.StateStatus)
	if err != nil {
		return err
	}
	// nil restores a NULL comments column
	var comments any
	if s, ok := comp.CompensationData.BeforeState.String(batch.StateComments); ok {
		comments = s
	}
	return o.bookings.UpdateFields(ctx, comp.CompensationData.TargetID, map[string]any{
		booking.FieldStatus:   status,
		booking.FieldComments: comments,
	})
}

// ==================== Booking dates ====================

type bookingSetDates struct {
	bookings booking.Repository
	params   *batch.SetDatesParams
}

func (o *bookingSetDates) Apply(ctx context.Context, oc *OperationContext) (map[string]any, error) {
	id := oc.Item.TargetID
	r := o.params.Range
	if oc.DryRun {
		details := map[string]any{
			"action":    "set_booking_dates",
			"target_id": id,
			"check_in":  r.CheckIn.Format(booking.DateLayout),
			"check_out": r.CheckOut.Format(booking.DateLayout),
		}
		if o.params.AccommodationID != nil {
			details["accommodation_id"] = *o.params.AccommodationID
		}
		return details, nil
	}

	// Earlier operations of the same batch may have taken the slot since validation
	if o.params.ValidateAvailability {
		b, err := o.bookings.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		accommodationID := b.AccommodationID
		if o.params.AccommodationID != nil {
			accommodationID = *o.params.AccommodationID
		}
		n, err := o.bookings.CountOverlapping(ctx, accommodationID, r, id)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, shared.NewDomainError(batch.CodeNotAvailable,
				fmt.Sprintf("Accommodation not available for booking %d on %s", id, r))
		}
	}

	fields := map[string]any{
		booking.FieldCheckInDate:  r.CheckIn,
		booking.FieldCheckOutDate: r.CheckOut,
		booking.FieldIsOpenDates:  false,
	}
	details := map[string]any{
		"booking_id":     id,
		"check_in_date":  r.CheckIn.Format(booking.DateLayout),
		"check_out_date": r.CheckOut.Format(booking.DateLayout),
	}
	if o.params.AccommodationID != nil {
		fields[booking.FieldAccommodationID] = *o.params.AccommodationID
		details["accommodation_id"] = *o.params.AccommodationID
	}
	if err := o.bookings.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return details, nil
}

func (o *bookingSetDates) Compensate(ctx context.Context, comp *batch.CompensationOperation) error {
	fields := map[string]any{
		booking.FieldCheckInDate:  nil,
		booking.FieldCheckOutDate: nil,
		booking.FieldIsOpenDates:  true,
	}
	if id, ok := toInt64(comp.CompensationData.BeforeState[batch.StateAccommodationID]); ok {
		fields[booking.FieldAccommodationID] = id
	}
	return o.bookings.UpdateFields(ctx, comp.CompensationData.TargetID, fields)
}

// ==================== Accommodation status ====================

type accommodationStatusUpdate struct {
	accommodations accommodation.Repository
	params         *batch.AccommodationStatusParams
}

func (o *accommodationStatusUpdate) Apply(ctx context.Context, oc *OperationContext) (map[string]any, error) {
	id := oc.Item.TargetID
	if oc.DryRun {
		details := map[string]any{
			"action":     "update_accommodation_status",
			"target_id":  id,
			"new_status": o.params.NewStatus.String(),
		}
		if o.params.NewCondition != nil {
			details["new_condition"] = o.params.NewCondition.String()
		}
		return details, nil
	}

	fields := map[string]any{accommodation.FieldStatus: o.params.NewStatus.String()}
	details := map[string]any{"updated_accommodation_id": id, "new_status": o.params.NewStatus.String()}
	if o.params.NewCondition != nil {
		fields[accommodation.FieldCondition] = o.params.NewCondition.String()
		details["new_condition"] = o.params.NewCondition.String()
	}
	if err := o.accommodations.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return details, nil
}

func (o *accommodationStatusUpdate) Compensate(ctx context.Context, comp *batch.CompensationOperation) error {
	status, err := beforeString(comp, batch.StateStatus)
	if err != nil {
		return err
	}
	fields := map[string]any{accommodation.FieldStatus: status}
	if condition, ok := comp.CompensationData.BeforeState.String(batch.StateCondition); ok {
		fields[accommodation.FieldCondition] = condition
	}
	return o.accommodations.UpdateFields(ctx, comp.CompensationData.TargetID, fields)
}

// beforeString reads a required string field of the compensation's before state
func beforeString(comp *batch.CompensationOperation, field string) (string, error) {
	v, ok := comp.CompensationData.BeforeState.String(field)
	if !ok {
		return "", shared.NewDomainError("MISSING_BEFORE_STATE",
			fmt.Sprintf("No %s recorded before operation %s", field, comp.OriginalOperationID))
	}
	return v, nil
}

// toInt64 accepts the numeric forms a state value takes in memory and after JSON
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
