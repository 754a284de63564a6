package bookings

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/config"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- Mock PartnerBookingClient ---

type mockClient struct {
	bookFn      func(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error)
	getStatusFn func(ctx context.Context, remoteRef string) (models.BookingStatus, error)
}

func (m *mockClient) Book(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error) {
	return m.bookFn(ctx, serviceType, serviceID, idempotencyKey, details)
}

func (m *mockClient) GetStatus(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
	return m.getStatusFn(ctx, remoteRef)
}

func confirmingClient() *mockClient {
	return &mockClient{
		bookFn: func(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error) {
			return &RemoteBooking{Reference: "ref-" + idempotencyKey[:8], Status: models.BookingConfirmed}, nil
		},
		getStatusFn: func(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
			return models.BookingConfirmed, nil
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))
	return db
}

func tourParams(customerID uint) CreateParams {
	return CreateParams{
		ServiceType:  models.ServiceTour,
		ServiceID:    "city-walk-7",
		CustomerID:   customerID,
		CustomerName: "Ada",
		Date:         "2025-06-01",
		Participants: 2,
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)

	booking, err := rec.CreateBooking(context.Background(), tourParams(1))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.NotEmpty(t, booking.RemoteRef)
	assert.NotEmpty(t, booking.IdempotencyKey)
	require.NotNil(t, booking.LastSyncedAt)
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	rec := NewReconciler(newTestDB(t), confirmingClient(), nil, time.Second)
	ctx := context.Background()

	p := tourParams(1)
	p.Participants = 0
	_, err := rec.CreateBooking(ctx, p)
	assert.Error(t, err)

	p = tourParams(1)
	p.ServiceType = "cruise"
	_, err = rec.CreateBooking(ctx, p)
	assert.Error(t, err)
}

func TestDuplicateBookingRejected(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)
	ctx := context.Background()

	_, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)

	_, err = rec.CreateBooking(ctx, tourParams(1))
	assert.True(t, errors.Is(err, ErrIdempotentConflict))

	// Different date is a different tuple.
	p := tourParams(1)
	p.Date = "2025-06-02"
	_, err = rec.CreateBooking(ctx, p)
	assert.NoError(t, err)
}

func TestCancelledBookingFreesTheTuple(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)
	ctx := context.Background()

	first, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)
	require.NoError(t, db.Model(first).Update("status", models.BookingCancelled).Error)

	_, err = rec.CreateBooking(ctx, tourParams(1))
	assert.NoError(t, err, "a cancelled booking must not block re-booking")
}

func TestConcurrentDuplicatesYieldExactlyOneBooking(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)

	const callers = 4
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rec.CreateBooking(context.Background(), tourParams(1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	conflicts := 0
	for err := range errs {
		if err == nil {
			continue
		}
		require.True(t, errors.Is(err, ErrIdempotentConflict), "unexpected error: %v", err)
		conflicts++
	}
	assert.Equal(t, callers-1, conflicts)
	var count int64
	require.NoError(t, db.Model(&models.Booking{}).
		Where("status <> ?", models.BookingCancelled).
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "exactly one non-cancelled booking may exist")
}

func TestRemoteFailureFailsFastAndLeavesNothing(t *testing.T) {
	db := newTestDB(t)
	client := &mockClient{
		bookFn: func(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error) {
			return nil, errors.New("connection refused")
		},
	}
	rec := NewReconciler(db, client, nil, time.Second)

	_, err := rec.CreateBooking(context.Background(), tourParams(1))
	assert.True(t, errors.Is(err, ErrServiceUnavailable))

	var count int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed booking must not leave a pending row")

	// The tuple is free for a retry once the partner recovers.
	rec2 := NewReconciler(db, confirmingClient(), nil, time.Second)
	_, err = rec2.CreateBooking(context.Background(), tourParams(1))
	assert.NoError(t, err)
}

func TestBreakerFailsFastAfterRepeatedFailures(t *testing.T) {
	db := newTestDB(t)
	var calls int32
	client := &mockClient{
		bookFn: func(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("timeout")
		},
	}
	rec := NewReconciler(db, client, nil, time.Second)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		p := tourParams(uint(i + 1))
		_, err := rec.CreateBooking(ctx, p)
		assert.True(t, errors.Is(err, ErrServiceUnavailable))
	}
	// The breaker opens after 5 consecutive failures; later attempts never
	// reach the partner.
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestReconcileStatusAlignsWithRemote(t *testing.T) {
	db := newTestDB(t)
	client := confirmingClient()
	rec := NewReconciler(db, client, nil, time.Second)
	ctx := context.Background()

	booking, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)

	// The partner cancelled the booking remotely.
	client.getStatusFn = func(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
		return models.BookingCancelled, nil
	}

	updated, err := rec.ReconcileStatus(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)

	var stored models.Booking
	require.NoError(t, db.First(&stored, booking.ID).Error)
	assert.Equal(t, models.BookingCancelled, stored.Status)
}

func TestReconcileRecoversLostRemoteRef(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)
	ctx := context.Background()

	booking, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)

	// Simulate the partial failure: remote booked, local row never learned
	// its reference or confirmed status.
	require.NoError(t, db.Model(booking).Updates(map[string]any{
		"status":     models.BookingPending,
		"remote_ref": "",
	}).Error)

	updated, err := rec.ReconcileStatus(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
	assert.NotEmpty(t, updated.RemoteRef, "re-booking under the stored key recovers the reference")
}

func TestReconcileStaleSweepsNonTerminalRows(t *testing.T) {
	db := newTestDB(t)
	client := confirmingClient()
	rec := NewReconciler(db, client, nil, time.Second)
	ctx := context.Background()

	b1, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)
	b2, err := rec.CreateBooking(ctx, tourParams(2))
	require.NoError(t, err)

	// b1 was cancelled remotely; b2's remote side completed.
	remote := map[string]models.BookingStatus{
		b1.RemoteRef: models.BookingCancelled,
		b2.RemoteRef: models.BookingCompleted,
	}
	client.getStatusFn = func(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
		return remote[remoteRef], nil
	}

	repaired, err := rec.ReconcileStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)

	var statuses []models.BookingStatus
	require.NoError(t, db.Model(&models.Booking{}).Order("id asc").Pluck("status", &statuses).Error)
	assert.Equal(t, []models.BookingStatus{models.BookingCancelled, models.BookingCompleted}, statuses)

	// Terminal rows are left alone on the next sweep.
	repaired, err = rec.ReconcileStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestGetAndListByCustomer(t *testing.T) {
	db := newTestDB(t)
	rec := NewReconciler(db, confirmingClient(), nil, time.Second)
	ctx := context.Background()

	booking, err := rec.CreateBooking(ctx, tourParams(1))
	require.NoError(t, err)
	p := tourParams(1)
	p.ServiceType = models.ServiceHotel
	_, err = rec.CreateBooking(ctx, p)
	require.NoError(t, err)

	got, err := rec.Get(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.IdempotencyKey, got.IdempotencyKey)

	_, err = rec.Get(ctx, 9999)
	assert.True(t, errors.Is(err, ErrBookingNotFound))

	mine, err := rec.ListByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	other, err := rec.ListByCustomer(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}
