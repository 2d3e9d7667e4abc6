package accommodation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// Status represents the operational status of an accommodation
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
	StatusOutOfOrder  Status = "out_of_order"
)

// ParseStatus converts a case-insensitive status name into a Status
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid accommodation status: %s", s))
	}
	return status, nil
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance, StatusOutOfOrder:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Condition describes the physical state of an accommodation
type Condition string

const (
	ConditionOK         Condition = "ok"
	ConditionMinorIssue Condition = "minor"
	ConditionCritical   Condition = "critical"
)

// ParseCondition converts a condition value. "MINOR_ISSUE" is accepted as an
// alias of "minor".
func ParseCondition(s string) (Condition, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "minor_issue" {
		v = string(ConditionMinorIssue)
	}
	c := Condition(v)
	if !c.IsValid() {
		return "", shared.NewDomainError("INVALID_CONDITION", fmt.Sprintf("Invalid accommodation condition: %s", s))
	}
	return c, nil
}

// IsValid checks if the condition is valid
func (c Condition) IsValid() bool {
	switch c {
	case ConditionOK, ConditionMinorIssue, ConditionCritical:
		return true
	}
	return false
}

// String returns the string representation of Condition
func (c Condition) String() string {
	return string(c)
}

// Type groups accommodations of the same kind (e.g. cabin, double room)
type Type struct {
	ID              int64
	Name            string
	Description     string
	DefaultCapacity int
	IsActive        bool
	CreatedAt       time.Time
}

// Accommodation is a bookable unit
type Accommodation struct {
	ID            int64
	Number        string
	TypeID        int64
	Capacity      int
	Status        Status
	Condition     Condition
	PricePerNight decimal.Decimal
	Comments      *string
	CreatedAt     time.Time
}

// IsAvailable returns true if the accommodation accepts new bookings
func (a *Accommodation) IsAvailable() bool {
	return a.Status == StatusAvailable
}

// Column names accepted by Repository.UpdateFields
const (
	FieldStatus    = "status"
	FieldCondition = "condition"
)

// Repository is the accommodation store consumed by the batch engine
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Accommodation, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// ExistingIDs returns the subset of ids that exist
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// FindAvailable lists AVAILABLE accommodations ordered by id,
	// restricted to typeIDs when non-empty
	FindAvailable(ctx context.Context, typeIDs []int64) ([]Accommodation, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
}
