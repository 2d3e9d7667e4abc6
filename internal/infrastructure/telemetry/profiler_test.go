package telemetry_test

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddressAndName(t *testing.T) {
	_, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ApplicationName: "booking"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "server address")

	_, err = telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "application name")
}

func TestWithOperationLabels(t *testing.T) {
	var label string
	var found bool
	telemetry.WithOperationLabels(context.Background(), "booking_cancel", func(ctx context.Context) {
		label, found = pprof.Label(ctx, "batch_operation")
	})

	require.True(t, found)
	assert.Equal(t, "booking_cancel", label)
}
