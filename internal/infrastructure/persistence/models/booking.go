package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
)

// BookingModel is the persistence model for the Booking domain entity.
type BookingModel struct {
	ID              int64                 `gorm:"primaryKey;autoIncrement"`
	ClientID        int64                 `gorm:"not null;index"`
	AccommodationID int64                 `gorm:"not null;index"`
	CheckInDate     *time.Time            `gorm:"type:date"`
	CheckOutDate    *time.Time            `gorm:"type:date"`
	IsOpenDates     bool                  `gorm:"not null;default:false"`
	ActualCheckIn   *time.Time
	ActualCheckOut  *time.Time
	GuestsCount     int                   `gorm:"not null;default:1"`
	Status          booking.Status        `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus   booking.PaymentStatus `gorm:"type:varchar(20);not null;default:'not_paid'"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0"`
	Comments        *string               `gorm:"type:text"`
	CreatedAt       time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BookingModel) TableName() string {
	return "bookings"
}

// ToDomain converts the persistence model to a domain Booking entity.
func (m *BookingModel) ToDomain() *booking.Booking {
	return &booking.Booking{
		ID:              m.ID,
		ClientID:        m.ClientID,
		AccommodationID: m.AccommodationID,
		CheckInDate:     utcDate(m.CheckInDate),
		CheckOutDate:    utcDate(m.CheckOutDate),
		IsOpenDates:     m.IsOpenDates,
		ActualCheckIn:   m.ActualCheckIn,
		ActualCheckOut:  m.ActualCheckOut,
		GuestsCount:     m.GuestsCount,
		Status:          m.Status,
		PaymentStatus:   m.PaymentStatus,
		TotalAmount:     m.TotalAmount,
		PaidAmount:      m.PaidAmount,
		Comments:        m.Comments,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Booking entity.
func (m *BookingModel) FromDomain(b *booking.Booking) {
	m.ID = b.ID
	m.ClientID = b.ClientID
	m.AccommodationID = b.AccommodationID
	m.CheckInDate = utcDate(b.CheckInDate)
	m.CheckOutDate = utcDate(b.CheckOutDate)
	m.IsOpenDates = b.IsOpenDates
	m.ActualCheckIn = b.ActualCheckIn
	m.ActualCheckOut = b.ActualCheckOut
	m.GuestsCount = b.GuestsCount
	m.Status = b.Status
	m.PaymentStatus = b.PaymentStatus
	m.TotalAmount = b.TotalAmount
	m.PaidAmount = b.PaidAmount
	m.Comments = b.Comments
	m.CreatedAt = b.CreatedAt
}

// BookingModelFromDomain creates a new persistence model from a domain Booking entity.
func BookingModelFromDomain(b *booking.Booking) *BookingModel {
	m := &BookingModel{}
	m.FromDomain(b)
	return m
}

// utcDate normalizes a calendar date column to UTC midnight
func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := booking.TruncateDate(*t)
	return &d
}
