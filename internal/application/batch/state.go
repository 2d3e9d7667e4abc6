package batch

import (
	"context"
	"errors"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// captureState snapshots the fields an operation on item's target may change.
// A missing target yields an empty state.
func (p *SagaBatchProcessor) captureState(ctx context.Context, item *batch.BatchOperationItem) (batch.EntityState, error) {
	switch item.OperationType.TargetKind() {
	case batch.EntityBooking:
		b, err := p.bookings.FindByID(ctx, item.TargetID)
		if errors.Is(err, shared.ErrNotFound) {
			return batch.EntityState{}, nil
		}
		if err != nil {
			return nil, err
		}
		return batch.BookingState(b), nil

	case batch.EntityAccommodation:
		a, err := p.accommodations.FindByID(ctx, item.TargetID)
		if errors.Is(err, shared.ErrNotFound) {
			return batch.EntityState{}, nil
		}
		if err != nil {
			return nil, err
		}
		return batch.AccommodationState(a), nil
	}
	return batch.EntityState{}, nil
}

// targetExists checks that item's target resolves to an entity of the expected kind
func (p *SagaBatchProcessor) targetExists(ctx context.Context, item *batch.BatchOperationItem) (bool, error) {
	switch item.OperationType.TargetKind() {
	case batch.EntityBooking:
		return p.bookings.Exists(ctx, item.TargetID)
	case batch.EntityAccommodation:
		return p.accommodations.Exists(ctx, item.TargetID)
	}
	// No store for other kinds in this service
	return false, nil
}
