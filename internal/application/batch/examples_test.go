package batch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleNames(t *testing.T) {
	assert.Equal(t, []string{
		"accommodation-status-update",
		"booking-cancel",
		"booking-set-dates",
		"booking-status-update",
		"bulk-confirmation",
		"bulk-date-assignment",
	}, ExampleNames())
}

func TestGetExample(t *testing.T) {
	ex, err := GetExample("booking-cancel")
	require.NoError(t, err)
	assert.Equal(t, "POST /api/v1/batch/bookings/cancel", ex.Endpoint)

	_, err = GetExample("booking-teleport")
	assert.EqualError(t, err, "Example booking-teleport not found")
}

// Every example payload must decode into the request type of its endpoint
func TestExamplesDecode(t *testing.T) {
	targets := map[string]any{
		"booking-status-update":       &BulkStatusUpdateRequest{},
		"booking-cancel":              &BulkCancelRequest{},
		"booking-set-dates":           &BulkSetDatesRequest{},
		"accommodation-status-update": &BulkAccommodationStatusRequest{},
		"bulk-confirmation":           &BulkConfirmRequest{},
		"bulk-date-assignment":        &BulkDateAssignmentRequest{},
	}
	for name, target := range targets {
		t.Run(name, func(t *testing.T) {
			ex, err := GetExample(name)
			require.NoError(t, err)
			raw, err := json.Marshal(ex.Example)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, target))
		})
	}

	var req BulkSetDatesRequest
	ex, _ := GetExample("booking-set-dates")
	raw, _ := json.Marshal(ex.Example)
	require.NoError(t, json.Unmarshal(raw, &req))
	assert.Len(t, req.Assignments, 2)
}
