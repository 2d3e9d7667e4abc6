package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Status Tests ====================

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCheckedIn, false},
		{StatusPending, StatusCheckedOut, false},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCheckedIn, StatusCheckedOut, true},
		{StatusCheckedIn, StatusCancelled, false},
		{StatusCheckedOut, StatusPending, false},
		{StatusCheckedOut, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_CanBeCancelled(t *testing.T) {
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.True(t, StatusCheckedIn.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
	assert.False(t, StatusCheckedOut.CanBeCancelled())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	s, err = ParseStatus("checked_in")
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestStatus_Name(t *testing.T) {
	assert.Equal(t, "CHECKED_OUT", StatusCheckedOut.Name())
}

// ==================== Booking Tests ====================

func TestBooking_CommentsWithCancellation(t *testing.T) {
	t.Run("no prior comments", func(t *testing.T) {
		b := &Booking{}
		assert.Equal(t, "Cancelled: guest request", b.CommentsWithCancellation("guest request"))
	})

	t.Run("appends to existing comments", func(t *testing.T) {
		existing := "Late arrival"
		b := &Booking{Comments: &existing}
		assert.Equal(t, "Late arrival\nCancelled: storm", b.CommentsWithCancellation("storm"))
	})
}

func TestBooking_Range(t *testing.T) {
	in := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)

	open := &Booking{IsOpenDates: true}
	_, ok := open.Range()
	assert.False(t, ok)

	dated := &Booking{CheckInDate: &in, CheckOutDate: &out}
	r, ok := dated.Range()
	require.True(t, ok)
	assert.Equal(t, 3, r.Nights())
}

// ==================== DateRange Tests ====================

func day(d int) time.Time {
	return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_Overlaps(t *testing.T) {
	base := DateRange{CheckIn: day(10), CheckOut: day(15)}

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", DateRange{day(10), day(15)}, true},
		{"inside", DateRange{day(11), day(12)}, true},
		{"straddles start", DateRange{day(8), day(11)}, true},
		{"straddles end", DateRange{day(14), day(20)}, true},
		{"ends at check-in", DateRange{day(5), day(10)}, false},
		{"starts at check-out", DateRange{day(15), day(18)}, false},
		{"disjoint", DateRange{day(20), day(22)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestNewDateRange(t *testing.T) {
	_, err := NewDateRange(day(10), day(10))
	assert.Error(t, err)

	_, err = NewDateRange(day(12), day(10))
	assert.Error(t, err)

	r, err := NewDateRange(day(10).Add(15*time.Hour), day(12))
	require.NoError(t, err)
	assert.Equal(t, day(10), r.CheckIn)
	assert.Equal(t, "2025-08-10 to 2025-08-12", r.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-08-15")
	require.NoError(t, err)
	assert.Equal(t, day(15), d)

	_, err = ParseDate("15/08/2025")
	assert.Error(t, err)
}
