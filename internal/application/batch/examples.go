package batch

import (
	"sort"

	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// Example is a sample payload for one batch endpoint
type Example struct {
	Example     map[string]any `json:"example"`
	Description string         `json:"description"`
	Endpoint    string         `json:"endpoint"`
}

var examples = map[string]Example{
	"booking-status-update": {
		Example: map[string]any{
			"booking_ids":    []int64{1, 2, 3},
			"new_status":     "CONFIRMED",
			"reason":         "Payment received",
			"notify_clients": true,
		},
		Description: "Update multiple bookings to CONFIRMED status",
		Endpoint:    "POST /api/v1/batch/bookings/status-update",
	},
	"booking-cancel": {
		Example: map[string]any{
			"booking_ids":         []int64{1, 2, 3},
			"cancellation_reason": "Client requested cancellation",
			"refund_amount":       "100.00",
			"notify_clients":      true,
		},
		Description: "Cancel multiple bookings with refund",
		Endpoint:    "POST /api/v1/batch/bookings/cancel",
	},
	"booking-set-dates": {
		Example: map[string]any{
			"booking_date_assignments": []map[string]any{
				{"booking_id": 1, "check_in_date": "2025-08-15", "check_out_date": "2025-08-18"},
				{"booking_id": 2, "check_in_date": "2025-08-20", "check_out_date": "2025-08-22"},
			},
			"validate_availability": true,
		},
		Description: "Assign specific dates to open-date bookings",
		Endpoint:    "POST /api/v1/batch/bookings/set-dates",
	},
	"accommodation-status-update": {
		Example: map[string]any{
			"accommodation_ids": []int64{1, 2, 3},
			"new_status":        "MAINTENANCE",
			"new_condition":     "MINOR_ISSUE",
			"reason":            "Scheduled maintenance",
			"maintenance_notes": "Plumbing repair required",
		},
		Description: "Update multiple accommodations to maintenance status",
		Endpoint:    "POST /api/v1/batch/accommodations/status-update",
	},
	"bulk-confirmation": {
		Example: map[string]any{
			"booking_ids":              []int64{1, 2, 3},
			"require_full_payment":     true,
			"send_confirmation_emails": true,
			"confirmation_message":     "Your booking has been confirmed!",
		},
		Description: "Confirm multiple bookings with payment validation",
		Endpoint:    "POST /api/v1/batch/bookings/confirm",
	},
	"bulk-date-assignment": {
		Example: map[string]any{
			"assignments": []map[string]any{
				{"booking_id": 1, "check_in_date": "2025-08-15", "check_out_date": "2025-08-18"},
				{"booking_id": 2, "check_in_date": "2025-08-20", "check_out_date": "2025-08-22", "accommodation_id": 5},
			},
			"validate_accommodation_availability": true,
			"auto_assign_accommodations":          true,
			"preferred_accommodation_types":       []int64{1, 2},
		},
		Description: "Assign dates to bookings with smart accommodation assignment",
		Endpoint:    "POST /api/v1/batch/bookings/assign-dates",
	},
}

// GetExample returns the sample payload registered under name
func GetExample(name string) (Example, error) {
	ex, ok := examples[name]
	if !ok {
		return Example{}, shared.NewDomainError("NOT_FOUND", "Example "+name+" not found")
	}
	return ex, nil
}

// ExampleNames lists the available examples, sorted
func ExampleNames() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
