package batch

import (
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
)

// Snapshot field names
const (
	StateStatus          = "status"
	StateComments        = "comments"
	StateCheckInDate     = "check_in_date"
	StateCheckOutDate    = "check_out_date"
	StateIsOpenDates     = "is_open_dates"
	StateAccommodationID = "accommodation_id"
	StateCondition       = "condition"
)

// BookingState projects the fields a booking operation may change
func BookingState(b *booking.Booking) EntityState {
	var comments any
	if b.Comments != nil {
		comments = *b.Comments
	}
	return EntityState{
		StateStatus:          b.Status.String(),
		StateComments:        comments,
		StateCheckInDate:     formatDate(b.CheckInDate),
		StateCheckOutDate:    formatDate(b.CheckOutDate),
		StateIsOpenDates:     b.IsOpenDates,
		StateAccommodationID: b.AccommodationID,
	}
}

// AccommodationState projects the fields an accommodation operation may change
func AccommodationState(a *accommodation.Accommodation) EntityState {
	return EntityState{
		StateStatus:    a.Status.String(),
		StateCondition: a.Condition.String(),
	}
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(booking.DateLayout)
}
