package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error is logged with job id", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		ctx, _ := WithJobID(context.Background(), zap.NewNop(), "job-1")

		gl.Trace(ctx, time.Now(), sqlFn(`UPDATE "bookings" SET "status"='cancelled'`, 0), errors.New("boom"))

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SQL Error", entries[0].Message)
		assert.Equal(t, "job-1", entries[0].ContextMap()["job_id"])
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("slow query is a warning", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("SELECT 1", 1), nil)

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		assert.Empty(t, recorded.All())
	})

	t.Run("info level logs queries at debug", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), nil)

		entries := recorded.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
