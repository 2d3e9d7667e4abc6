package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/telemetry"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{ServiceName: "booking-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Equal(t, "booking-test", lp.GetConfig().ServiceName)
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_NopWhenDisabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, provider := range []*telemetry.LoggerProvider{nil, lp} {
		core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    "booking-test",
			LoggerProvider: provider,
			Level:          zapcore.InfoLevel,
		})
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	}
}
