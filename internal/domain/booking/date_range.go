package booking

import (
	"fmt"
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// DateLayout is the wire and message format for booking dates
const DateLayout = "2006-01-02"

// DateRange is a half-open stay [CheckIn, CheckOut)
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange normalizes both ends to UTC midnight and requires CheckIn < CheckOut
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: TruncateDate(checkIn), CheckOut: TruncateDate(checkOut)}
	if !r.IsValid() {
		return DateRange{}, shared.NewDomainError("INVALID_DATE_RANGE", "check-in must be before check-out")
	}
	return r, nil
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}

// TruncateDate drops the time-of-day and location of t
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsValid reports whether the range is non-empty
func (r DateRange) IsValid() bool {
	return r.CheckIn.Before(r.CheckOut)
}

// Overlaps reports whether two half-open ranges [a,b) and [c,d) conflict: a<d and c<b
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Nights returns the number of nights in the range
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// String renders the range as "YYYY-MM-DD to YYYY-MM-DD"
func (r DateRange) String() string {
	return fmt.Sprintf("%s to %s", r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout))
}
