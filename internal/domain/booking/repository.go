package booking

import "context"

// Column names accepted by Repository.UpdateFields
const (
	FieldStatus          = "status"
	FieldComments        = "comments"
	FieldCheckInDate     = "check_in_date"
	FieldCheckOutDate    = "check_out_date"
	FieldIsOpenDates     = "is_open_dates"
	FieldAccommodationID = "accommodation_id"
)

// Repository is the booking store consumed by the batch engine.
// Every write commits on its own; callers never get a multi-statement transaction.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Booking, error)
	FindByIDs(ctx context.Context, ids []int64) ([]Booking, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// UpdateFields writes the given column values onto booking id.
	// A nil value clears the column.
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	// CountOverlapping counts dated CONFIRMED/CHECKED_IN bookings on accommodationID
	// whose range overlaps r, ignoring excludeID when it is non-zero.
	CountOverlapping(ctx context.Context, accommodationID int64, r DateRange, excludeID int64) (int64, error)
}
