package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// bookingUpdatableFields whitelists the columns UpdateFields may touch
var bookingUpdatableFields = map[string]bool{
	booking.FieldStatus:          true,
	booking.FieldComments:        true,
	booking.FieldCheckInDate:     true,
	booking.FieldCheckOutDate:    true,
	booking.FieldIsOpenDates:     true,
	booking.FieldAccommodationID: true,
}

// GormBookingRepository implements booking.Repository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID finds a booking by its ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (*booking.Booking, error) {
	var model models.BookingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds all bookings whose ID is in ids, ordered by ID
func (r *GormBookingRepository) FindByIDs(ctx context.Context, ids []int64) ([]booking.Booking, error) {
	if len(ids) == 0 {
		return []booking.Booking{}, nil
	}
	var bookingModels []models.BookingModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&bookingModels).Error; err != nil {
		return nil, err
	}

	bookings := make([]booking.Booking, len(bookingModels))
	for i, model := range bookingModels {
		bookings[i] = *model.ToDomain()
	}
	return bookings, nil
}

// Exists reports whether a booking with the given ID exists
func (r *GormBookingRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BookingModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateFields writes the given columns in a single UPDATE statement
func (r *GormBookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make(map[string]any, len(fields))
	for column, value := range fields {
		if !bookingUpdatableFields[column] {
			return shared.NewDomainError("INVALID_FIELD", "Unknown booking field: "+column)
		}
		if t, ok := value.(time.Time); ok {
			value = booking.TruncateDate(t)
		}
		updates[column] = value
	}

	result := r.db.WithContext(ctx).Model(&models.BookingModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountOverlapping counts dated bookings in an occupying status on the
// accommodation whose range overlaps r
func (r *GormBookingRepository) CountOverlapping(ctx context.Context, accommodationID int64, dr booking.DateRange, excludeID int64) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BookingModel{}).
		Where("accommodation_id = ?", accommodationID).
		Where("status IN ?", []booking.Status{booking.StatusConfirmed, booking.StatusCheckedIn}).
		Where("is_open_dates = ?", false).
		Where("check_in_date IS NOT NULL AND check_out_date IS NOT NULL").
		Where("check_in_date < ? AND check_out_date > ?", booking.TruncateDate(dr.CheckOut), booking.TruncateDate(dr.CheckIn))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new booking and assigns its ID
func (r *GormBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	model := models.BookingModelFromDomain(b)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	return nil
}

// Ensure GormBookingRepository implements booking.Repository
var _ booking.Repository = (*GormBookingRepository)(nil)
