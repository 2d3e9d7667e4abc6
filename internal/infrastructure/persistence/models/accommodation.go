package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
)

// AccommodationTypeModel is the persistence model for accommodation types.
type AccommodationTypeModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description     string    `gorm:"type:text"`
	DefaultCapacity int       `gorm:"not null;default:1"`
	IsActive        bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccommodationTypeModel) TableName() string {
	return "accommodation_types"
}

// ToDomain converts the persistence model to a domain Type.
func (m *AccommodationTypeModel) ToDomain() *accommodation.Type {
	return &accommodation.Type{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		DefaultCapacity: m.DefaultCapacity,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
	}
}

// AccommodationModel is the persistence model for the Accommodation domain entity.
type AccommodationModel struct {
	ID            int64                   `gorm:"primaryKey;autoIncrement"`
	Number        string                  `gorm:"type:varchar(20);not null;uniqueIndex"`
	TypeID        int64                   `gorm:"column:type_id;not null;index"`
	Capacity      int                     `gorm:"not null;default:1"`
	Status        accommodation.Status    `gorm:"type:varchar(20);not null;default:'available';index"`
	Condition     accommodation.Condition `gorm:"type:varchar(20);not null;default:'ok'"`
	PricePerNight decimal.Decimal         `gorm:"type:decimal(10,2);not null;default:0"`
	Comments      *string                 `gorm:"type:text"`
	CreatedAt     time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccommodationModel) TableName() string {
	return "accommodations"
}

// ToDomain converts the persistence model to a domain Accommodation entity.
func (m *AccommodationModel) ToDomain() *accommodation.Accommodation {
	return &accommodation.Accommodation{
		ID:            m.ID,
		Number:        m.Number,
		TypeID:        m.TypeID,
		Capacity:      m.Capacity,
		Status:        m.Status,
		Condition:     m.Condition,
		PricePerNight: m.PricePerNight,
		Comments:      m.Comments,
		CreatedAt:     m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Accommodation entity.
func (m *AccommodationModel) FromDomain(a *accommodation.Accommodation) {
	m.ID = a.ID
	m.Number = a.Number
	m.TypeID = a.TypeID
	m.Capacity = a.Capacity
	m.Status = a.Status
	m.Condition = a.Condition
	m.PricePerNight = a.PricePerNight
	m.Comments = a.Comments
	m.CreatedAt = a.CreatedAt
}

// AccommodationModelFromDomain creates a new persistence model from a domain Accommodation entity.
func AccommodationModelFromDomain(a *accommodation.Accommodation) *AccommodationModel {
	m := &AccommodationModel{}
	m.FromDomain(a)
	return m
}
