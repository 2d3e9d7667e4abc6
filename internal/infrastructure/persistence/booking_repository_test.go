package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockBookingRepository creates a GormBookingRepository with a mocked SQL connection
func newMockBookingRepository(t *testing.T) (*GormBookingRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBookingRepository(gormDB), mock, mockDB
}

func date(s string) time.Time {
	d, err := booking.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func seedBooking(t *testing.T, repo *GormBookingRepository, b *booking.Booking) *booking.Booking {
	t.Helper()
	if b.PaymentStatus == "" {
		b.PaymentStatus = booking.PaymentNotPaid
	}
	if b.GuestsCount == 0 {
		b.GuestsCount = 2
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestGormBookingRepository_FindByID_Mock(t *testing.T) {
	t.Run("finds existing booking", func(t *testing.T) {
		repo, mock, mockDB := newMockBookingRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "client_id", "accommodation_id", "is_open_dates", "status", "payment_status", "total_amount", "paid_amount"}).
			AddRow(7, 3, 11, true, "pending", "paid", "200.00", "200.00")

		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(7), 1).
			WillReturnRows(rows)

		b, err := repo.FindByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), b.ID)
		assert.Equal(t, booking.StatusPending, b.Status)
		assert.True(t, b.IsFullyPaid())
		assert.True(t, b.IsOpenDates)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps record not found to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockBookingRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(int64(99), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), 99)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBookingRepository_UpdateFields_Mock(t *testing.T) {
	repo, mock, mockDB := newMockBookingRepository(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "bookings" SET "status"=\$1 WHERE id = \$2`).
		WithArgs("confirmed", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(context.Background(), 5, map[string]any{booking.FieldStatus: booking.StatusConfirmed})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBookingRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find round trip", func(t *testing.T) {
		repo := NewGormBookingRepository(newSQLiteTestDB(t))
		comments := "late arrival"
		b := seedBooking(t, repo, &booking.Booking{
			ClientID:        1,
			AccommodationID: 2,
			CheckInDate:     datePtr("2025-07-01"),
			CheckOutDate:    datePtr("2025-07-05"),
			Status:          booking.StatusConfirmed,
			TotalAmount:     decimal.NewFromInt(400),
			Comments:        &comments,
		})

		found, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, found.Status)
		require.NotNil(t, found.CheckInDate)
		assert.Equal(t, "2025-07-01", found.CheckInDate.Format(booking.DateLayout))
		require.NotNil(t, found.Comments)
		assert.Equal(t, "late arrival", *found.Comments)
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(400)))
	})

	t.Run("exists and find by ids", func(t *testing.T) {
		repo := NewGormBookingRepository(newSQLiteTestDB(t))
		a := seedBooking(t, repo, &booking.Booking{ClientID: 1, AccommodationID: 1, IsOpenDates: true, Status: booking.StatusPending})
		b := seedBooking(t, repo, &booking.Booking{ClientID: 2, AccommodationID: 1, IsOpenDates: true, Status: booking.StatusPending})

		ok, err := repo.Exists(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := repo.FindByIDs(ctx, []int64{b.ID, a.ID, 9999})
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, a.ID, found[0].ID)
		assert.Equal(t, b.ID, found[1].ID)

		empty, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("update fields writes and clears columns", func(t *testing.T) {
		repo := NewGormBookingRepository(newSQLiteTestDB(t))
		comments := "note"
		b := seedBooking(t, repo, &booking.Booking{
			ClientID: 1, AccommodationID: 1, IsOpenDates: true, Status: booking.StatusPending, Comments: &comments,
		})

		err := repo.UpdateFields(ctx, b.ID, map[string]any{
			booking.FieldCheckInDate:  date("2025-08-10"),
			booking.FieldCheckOutDate: date("2025-08-12"),
			booking.FieldIsOpenDates:  false,
			booking.FieldComments:     nil,
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, found.IsOpenDates)
		assert.Nil(t, found.Comments)
		r, ok := found.Range()
		require.True(t, ok)
		assert.Equal(t, "2025-08-10 to 2025-08-12", r.String())

		err = repo.UpdateFields(ctx, b.ID, map[string]any{
			booking.FieldCheckInDate:  nil,
			booking.FieldCheckOutDate: nil,
			booking.FieldIsOpenDates:  true,
		})
		require.NoError(t, err)
		found, err = repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Nil(t, found.CheckInDate)
		assert.Nil(t, found.CheckOutDate)
		assert.True(t, found.IsOpenDates)
	})

	t.Run("update fields rejects unknown columns and missing rows", func(t *testing.T) {
		repo := NewGormBookingRepository(newSQLiteTestDB(t))
		b := seedBooking(t, repo, &booking.Booking{ClientID: 1, AccommodationID: 1, Status: booking.StatusPending, IsOpenDates: true})

		err := repo.UpdateFields(ctx, b.ID, map[string]any{"total_amount": 0})
		assert.Equal(t, "INVALID_FIELD", shared.ErrorCode(err))

		err = repo.UpdateFields(ctx, 424242, map[string]any{booking.FieldStatus: booking.StatusCancelled})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("count overlapping honours status, range and exclusion", func(t *testing.T) {
		repo := NewGormBookingRepository(newSQLiteTestDB(t))
		confirmed := seedBooking(t, repo, &booking.Booking{
			ClientID: 1, AccommodationID: 10, Status: booking.StatusConfirmed,
			CheckInDate: datePtr("2025-09-10"), CheckOutDate: datePtr("2025-09-15"),
		})
		seedBooking(t, repo, &booking.Booking{
			ClientID: 2, AccommodationID: 10, Status: booking.StatusCancelled,
			CheckInDate: datePtr("2025-09-10"), CheckOutDate: datePtr("2025-09-15"),
		})
		seedBooking(t, repo, &booking.Booking{
			ClientID: 3, AccommodationID: 10, Status: booking.StatusPending, IsOpenDates: true,
		})

		overlapping, err := booking.NewDateRange(date("2025-09-14"), date("2025-09-18"))
		require.NoError(t, err)
		adjacent, err := booking.NewDateRange(date("2025-09-15"), date("2025-09-18"))
		require.NoError(t, err)

		n, err := repo.CountOverlapping(ctx, 10, overlapping, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.CountOverlapping(ctx, 10, adjacent, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n, "check-out day is free for the next check-in")

		n, err = repo.CountOverlapping(ctx, 10, overlapping, confirmed.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = repo.CountOverlapping(ctx, 11, overlapping, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}
