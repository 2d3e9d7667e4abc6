package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/booking"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fixture is an in-memory booking store with a processor and service on top
type fixture struct {
	t              *testing.T
	db             *gorm.DB
	store          *persistence.GormBookingRepository
	bookings       *faultyBookings
	accommodations *persistence.GormAccommodationRepository
	sagas          *persistence.GormSagaTransactionRepository
	processor      *SagaBatchProcessor
	service        *BatchOperationService
	logs           *observer.ObservedLogs
}

func testProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MaxConcurrency:            3,
		CompensationTimeout:       5 * time.Second,
		CompensationRetryAttempts: 3,
		CompensationRetryDelay:    time.Millisecond,
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, testProcessorConfig())
}

func newFixtureWithConfig(t *testing.T, cfg ProcessorConfig) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	store := persistence.NewGormBookingRepository(db)
	f := &fixture{
		t:              t,
		db:             db,
		store:          store,
		bookings:       &faultyBookings{Repository: store},
		accommodations: persistence.NewGormAccommodationRepository(db),
		sagas:          persistence.NewGormSagaTransactionRepository(db),
		logs:           logs,
	}
	f.processor = NewSagaBatchProcessor(f.bookings, f.accommodations, f.sagas, cfg, log)
	f.service = NewBatchOperationService(f.processor, f.bookings, f.accommodations, f.sagas, log)

	now := time.Now()
	require.NoError(t, db.Create(&models.AccommodationTypeModel{ID: 1, Name: "Cabin", DefaultCapacity: 2, IsActive: true, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&models.AccommodationTypeModel{ID: 2, Name: "Tent", DefaultCapacity: 2, IsActive: true, CreatedAt: now}).Error)
	return f
}

// ==================== Seeding ====================

type bookingOption func(*booking.Booking)

func withDates(checkIn, checkOut string) bookingOption {
	return func(b *booking.Booking) {
		in, out := mustDate(checkIn), mustDate(checkOut)
		b.CheckInDate, b.CheckOutDate = &in, &out
		b.IsOpenDates = false
	}
}

func withComments(c string) bookingOption {
	return func(b *booking.Booking) { b.Comments = &c }
}

func withPayment(s booking.PaymentStatus) bookingOption {
	return func(b *booking.Booking) { b.PaymentStatus = s }
}

func (f *fixture) seedAccommodation(number string, typeID int64, status accommodation.Status) int64 {
	f.t.Helper()
	a := &accommodation.Accommodation{
		Number:        number,
		TypeID:        typeID,
		Capacity:      2,
		Status:        status,
		Condition:     accommodation.ConditionOK,
		PricePerNight: decimal.NewFromInt(80),
	}
	require.NoError(f.t, f.accommodations.Create(context.Background(), a))
	return a.ID
}

// seedBooking creates an open-dates booking on accommodationID unless withDates is given
func (f *fixture) seedBooking(accommodationID int64, status booking.Status, opts ...bookingOption) int64 {
	f.t.Helper()
	b := &booking.Booking{
		ClientID:        1,
		AccommodationID: accommodationID,
		IsOpenDates:     true,
		GuestsCount:     2,
		Status:          status,
		PaymentStatus:   booking.PaymentNotPaid,
		TotalAmount:     decimal.NewFromInt(240),
		PaidAmount:      decimal.Zero,
	}
	for _, opt := range opts {
		opt(b)
	}
	require.NoError(f.t, f.store.Create(context.Background(), b))
	return b.ID
}

func (f *fixture) booking(id int64) *booking.Booking {
	f.t.Helper()
	b, err := f.store.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) accommodation(id int64) *accommodation.Accommodation {
	f.t.Helper()
	a, err := f.accommodations.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return a
}

func (f *fixture) transactions(jobID string) []batch.SagaTransaction {
	f.t.Helper()
	txs, err := f.sagas.FindByJobID(context.Background(), jobID)
	require.NoError(f.t, err)
	return txs
}

func mustDate(s string) time.Time {
	d, err := booking.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ==================== Requests ====================

func statusOp(id int64, status booking.Status) *batch.BatchOperationItem {
	return batch.NewOperationItem(id, &batch.StatusUpdateParams{NewStatus: status})
}

func cancelOp(id int64, reason string) *batch.BatchOperationItem {
	return batch.NewOperationItem(id, &batch.CancelParams{Reason: reason})
}

func newRequest(t *testing.T, opts batch.Options, ops ...*batch.BatchOperationItem) *batch.BatchRequest {
	t.Helper()
	req, err := batch.NewBatchRequest("test job", "", ops, opts)
	require.NoError(t, err)
	return req
}

// ==================== Fault injection ====================

// updateCall is one UpdateFields invocation seen by faultyBookings
type updateCall struct {
	ID     int64
	Fields map[string]any
}

// faultyBookings wraps the real store, recording writes and failing or
// delaying them on demand
type faultyBookings struct {
	booking.Repository

	mu      sync.Mutex
	updates []updateCall
	// onUpdate runs before the write; a non-nil error fails it
	onUpdate func(id int64, fields map[string]any) error
	// afterUpdate runs once a write has committed
	afterUpdate func(id int64, fields map[string]any)
	// onFind runs before FindByID reads
	onFind func(id int64) error
}

func (r *faultyBookings) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	r.mu.Lock()
	r.updates = append(r.updates, updateCall{ID: id, Fields: fields})
	hook, after := r.onUpdate, r.afterUpdate
	r.mu.Unlock()

	if hook != nil {
		if err := hook(id, fields); err != nil {
			return err
		}
	}
	if err := r.Repository.UpdateFields(ctx, id, fields); err != nil {
		return err
	}
	if after != nil {
		after(id, fields)
	}
	return nil
}

func (r *faultyBookings) FindByID(ctx context.Context, id int64) (*booking.Booking, error) {
	r.mu.Lock()
	hook := r.onFind
	r.mu.Unlock()

	if hook != nil {
		if err := hook(id); err != nil {
			return nil, err
		}
	}
	return r.Repository.FindByID(ctx, id)
}

func (r *faultyBookings) setOnUpdate(fn func(id int64, fields map[string]any) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

func (r *faultyBookings) setAfterUpdate(fn func(id int64, fields map[string]any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterUpdate = fn
}

func (r *faultyBookings) setOnFind(fn func(id int64) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFind = fn
}

// updatedIDs returns the ids of every recorded write, in call order
func (r *faultyBookings) updatedIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, len(r.updates))
	for i, u := range r.updates {
		ids[i] = u.ID
	}
	return ids
}

func (r *faultyBookings) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func isCompensationWrite(fields map[string]any) bool {
	return fields[booking.FieldStatus] == booking.StatusPending.String()
}
