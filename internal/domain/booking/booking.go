package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// Status represents the lifecycle status of a booking
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus converts a case-insensitive status name into a Status
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid booking status: %s", s))
	}
	return status, nil
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Name returns the upper-case name used in user-facing messages
func (s Status) Name() string {
	return strings.ToUpper(string(s))
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusCheckedIn || target == StatusCancelled
	case StatusCheckedIn:
		return target == StatusCheckedOut
	case StatusCheckedOut, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// CanBeCancelled reports whether a booking in this status may still be cancelled
func (s Status) CanBeCancelled() bool {
	return s != StatusCancelled && s != StatusCheckedOut
}

// OccupiesAccommodation reports whether bookings in this status block the
// accommodation for their date range
func (s Status) OccupiesAccommodation() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// PaymentStatus represents how much of a booking has been paid
type PaymentStatus string

const (
	PaymentNotPaid PaymentStatus = "not_paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// IsValid checks if the payment status is valid
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentNotPaid, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// Booking is a reservation of one accommodation by one client.
// Open-dates bookings have no check-in/check-out until dates are assigned.
type Booking struct {
	ID              int64
	ClientID        int64
	AccommodationID int64
	CheckInDate     *time.Time
	CheckOutDate    *time.Time
	IsOpenDates     bool
	ActualCheckIn   *time.Time
	ActualCheckOut  *time.Time
	GuestsCount     int
	Status          Status
	PaymentStatus   PaymentStatus
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	Comments        *string
	CreatedAt       time.Time
}

// IsPending returns true if the booking awaits confirmation
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

// IsFullyPaid returns true if the booking's payment status is PAID
func (b *Booking) IsFullyPaid() bool {
	return b.PaymentStatus == PaymentPaid
}

// Range returns the booking's date range, or false for open-dates bookings
func (b *Booking) Range() (DateRange, bool) {
	if b.IsOpenDates || b.CheckInDate == nil || b.CheckOutDate == nil {
		return DateRange{}, false
	}
	return DateRange{CheckIn: *b.CheckInDate, CheckOut: *b.CheckOutDate}, true
}

// CommentsWithCancellation returns the comments value after appending a
// cancellation note for reason
func (b *Booking) CommentsWithCancellation(reason string) string {
	current := ""
	if b.Comments != nil {
		current = *b.Comments
	}
	return strings.TrimSpace(fmt.Sprintf("%s\nCancelled: %s", current, reason))
}
