package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var accommodationUpdatableFields = map[string]bool{
	accommodation.FieldStatus:    true,
	accommodation.FieldCondition: true,
}

// GormAccommodationRepository implements accommodation.Repository using GORM
type GormAccommodationRepository struct {
	db *gorm.DB
}

// NewGormAccommodationRepository creates a new GormAccommodationRepository
func NewGormAccommodationRepository(db *gorm.DB) *GormAccommodationRepository {
	return &GormAccommodationRepository{db: db}
}

// FindByID finds an accommodation by its ID
func (r *GormAccommodationRepository) FindByID(ctx context.Context, id int64) (*accommodation.Accommodation, error) {
	var model models.AccommodationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether an accommodation with the given ID exists
func (r *GormAccommodationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AccommodationModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingIDs returns the subset of ids present in the table
func (r *GormAccommodationRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	found := []int64{}
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.AccommodationModel{}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// FindAvailable lists AVAILABLE accommodations ordered by ID
func (r *GormAccommodationRepository) FindAvailable(ctx context.Context, typeIDs []int64) ([]accommodation.Accommodation, error) {
	query := r.db.WithContext(ctx).Model(&models.AccommodationModel{}).
		Where("status = ?", accommodation.StatusAvailable)
	if len(typeIDs) > 0 {
		query = query.Where("type_id IN ?", typeIDs)
	}

	var accommodationModels []models.AccommodationModel
	if err := query.Order("id ASC").Find(&accommodationModels).Error; err != nil {
		return nil, err
	}

	accommodations := make([]accommodation.Accommodation, len(accommodationModels))
	for i, model := range accommodationModels {
		accommodations[i] = *model.ToDomain()
	}
	return accommodations, nil
}

// UpdateFields writes the given columns in a single UPDATE statement
func (r *GormAccommodationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	for column := range fields {
		if !accommodationUpdatableFields[column] {
			return shared.NewDomainError("INVALID_FIELD", "Unknown accommodation field: "+column)
		}
	}

	result := r.db.WithContext(ctx).Model(&models.AccommodationModel{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Create inserts a new accommodation and assigns its ID
func (r *GormAccommodationRepository) Create(ctx context.Context, a *accommodation.Accommodation) error {
	model := models.AccommodationModelFromDomain(a)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return nil
}

// Ensure GormAccommodationRepository implements accommodation.Repository
var _ accommodation.Repository = (*GormAccommodationRepository)(nil)
