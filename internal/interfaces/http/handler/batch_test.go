package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appbatch "github.com/wishup-shore/booking-system-backend/internal/application/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
	"github.com/wishup-shore/booking-system-backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type testEnv struct {
	t        *testing.T
	router   *gin.Engine
	bookings *persistence.GormBookingRepository
	roomID   int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))
	require.NoError(t, db.Create(&models.AccommodationTypeModel{ID: 1, Name: "Cabin", DefaultCapacity: 2, IsActive: true, CreatedAt: time.Now()}).Error)

	bookings := persistence.NewGormBookingRepository(db)
	accommodations := persistence.NewGormAccommodationRepository(db)
	sagas := persistence.NewGormSagaTransactionRepository(db)

	processor := appbatch.NewSagaBatchProcessor(bookings, accommodations, sagas, appbatch.ProcessorConfig{
		MaxConcurrency:            2,
		CompensationTimeout:       5 * time.Second,
		CompensationRetryAttempts: 1,
		CompensationRetryDelay:    time.Millisecond,
	}, zap.NewNop())
	service := appbatch.NewBatchOperationService(processor, bookings, accommodations, sagas, zap.NewNop())
	h := NewBatchHandler(service)

	room := &accommodation.Accommodation{
		Number:        "A1",
		TypeID:        1,
		Capacity:      2,
		Status:        accommodation.StatusAvailable,
		Condition:     accommodation.ConditionOK,
		PricePerNight: decimal.NewFromInt(80),
	}
	require.NoError(t, accommodations.Create(context.Background(), room))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.JWTAuth(middleware.JWTAuthConfig{Enabled: false}))
	g := r.Group("/api/v1/batch")
	g.POST("/bookings/cancel", h.BulkCancelBookings)
	g.POST("/bookings/status-update", h.BulkUpdateBookingStatus)
	g.POST("/execute", h.ExecuteBatch)
	g.POST("/validate", h.ValidateBatch)
	g.GET("/status/:job_id", h.GetJobStatus)
	g.GET("/jobs", h.ListJobs)
	g.POST("/cancel/:job_id", h.CancelJob)
	g.GET("/examples", h.ListExamples)
	g.GET("/examples/:name", h.GetExample)

	return &testEnv{t: t, router: r, bookings: bookings, roomID: room.ID}
}

func (e *testEnv) seedBooking(status booking.Status) int64 {
	e.t.Helper()
	b := &booking.Booking{
		ClientID:        1,
		AccommodationID: e.roomID,
		IsOpenDates:     true,
		GuestsCount:     2,
		Status:          status,
		PaymentStatus:   booking.PaymentNotPaid,
		TotalAmount:     decimal.NewFromInt(240),
		PaidAmount:      decimal.Zero,
	}
	require.NoError(e.t, e.bookings.Create(context.Background(), b))
	return b.ID
}

func (e *testEnv) bookingStatus(id int64) booking.Status {
	e.t.Helper()
	b, err := e.bookings.FindByID(context.Background(), id)
	require.NoError(e.t, err)
	return b.Status
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
	} `json:"meta"`
}

func (e *testEnv) do(method, path string, body any) (int, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "ops")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestBatchHandler_BulkCancel(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedBooking(booking.StatusPending)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/bookings/cancel", gin.H{
		"booking_ids":         []int64{id},
		"cancellation_reason": "storm",
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	var result struct {
		JobID                string `json:"job_id"`
		Status               string `json:"status"`
		SuccessfulOperations int    `json:"successful_operations"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, 1, result.SuccessfulOperations)
	assert.Equal(t, booking.StatusCancelled, env.bookingStatus(id))

	code, resp = env.do(http.MethodGet, "/api/v1/batch/status/"+result.JobID, nil)
	require.Equal(t, http.StatusOK, code)
	var status struct {
		Running      bool `json:"running"`
		Transactions []struct {
			SubmittedBy string `json:"submitted_by"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.False(t, status.Running)
	require.Len(t, status.Transactions, 1)
	assert.Equal(t, "ops", status.Transactions[0].SubmittedBy)
}

func TestBatchHandler_DryRun(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedBooking(booking.StatusPending)

	code, _ := env.do(http.MethodPost, "/api/v1/batch/bookings/status-update?dry_run=true", gin.H{
		"booking_ids": []int64{id},
		"new_status":  "confirmed",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.StatusPending, env.bookingStatus(id))

	code, resp := env.do(http.MethodPost, "/api/v1/batch/bookings/status-update?dry_run=maybe", gin.H{
		"booking_ids": []int64{id},
		"new_status":  "confirmed",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestBatchHandler_RequestValidation(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/bookings/cancel", gin.H{"booking_ids": []int64{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, string(resp.Error.Details), "cancellation_reason")
}

func TestBatchHandler_BusinessValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedBooking(booking.StatusCancelled)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/bookings/cancel", gin.H{
		"booking_ids":         []int64{id, 999},
		"cancellation_reason": "storm",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	var issues []struct {
		TargetID int64 `json:"target_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Error.Details, &issues))
	assert.Len(t, issues, 2)
}

func TestBatchHandler_JobStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(http.MethodGet, "/api/v1/batch/status/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestBatchHandler_CancelJobNotRunning(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/cancel/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestBatchHandler_ListJobs(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		id := env.seedBooking(booking.StatusPending)
		code, _ := env.do(http.MethodPost, "/api/v1/batch/bookings/cancel", gin.H{
			"booking_ids":         []int64{id},
			"cancellation_reason": "storm",
		})
		require.Equal(t, http.StatusOK, code)
	}

	code, resp := env.do(http.MethodGet, "/api/v1/batch/jobs?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)

	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	assert.Len(t, items, 2)

	code, resp = env.do(http.MethodGet, "/api/v1/batch/jobs?status=failed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), resp.Meta.Total)

	code, resp = env.do(http.MethodGet, "/api/v1/batch/jobs?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestBatchHandler_ExecuteScheduled(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedBooking(booking.StatusPending)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/execute", gin.H{
		"job_name":   "later",
		"execute_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"operations": []gin.H{{
			"target_id":      id,
			"operation_type": "booking_status_update",
			"parameters":     gin.H{"new_status": "confirmed"},
		}},
	})
	assert.Equal(t, http.StatusNotImplemented, code)
	assert.Equal(t, "NOT_IMPLEMENTED", resp.Error.Code)
	assert.Equal(t, booking.StatusPending, env.bookingStatus(id))
}

func TestBatchHandler_Validate(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(http.MethodPost, "/api/v1/batch/validate", gin.H{
		"job_name": "bad",
		"operations": []gin.H{{
			"target_id":      1,
			"operation_type": "booking_teleport",
		}},
	})
	require.Equal(t, http.StatusOK, code)

	var out appbatch.ValidateBatchResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.False(t, out.Valid)
	assert.True(t, out.ValidationFailed)
	assert.NotEmpty(t, out.Error)
}

func TestBatchHandler_Examples(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(http.MethodGet, "/api/v1/batch/examples", nil)
	require.Equal(t, http.StatusOK, code)
	var names []string
	require.NoError(t, json.Unmarshal(resp.Data, &names))
	assert.Contains(t, names, "booking-cancel")

	code, _ = env.do(http.MethodGet, "/api/v1/batch/examples/booking-cancel", nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = env.do(http.MethodGet, "/api/v1/batch/examples/booking-teleport", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Example booking-teleport not found", resp.Error.Message)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(stubPinger{err: tt.err}).Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, w.Code)

			var env envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			var health HealthResponse
			require.NoError(t, json.Unmarshal(env.Data, &health))
			assert.Equal(t, tt.want, health.Status)
		})
	}
}
