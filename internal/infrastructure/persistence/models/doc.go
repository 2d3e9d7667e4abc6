// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - booking.go: bookings table
//   - accommodation.go: accommodations and accommodation_types tables
//   - saga_transaction.go: saga_transactions audit table
package models
