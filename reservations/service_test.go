package reservations

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/zacktam12/Restaurant-management-sub000/config"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func seedRestaurant(t *testing.T, db *gorm.DB, capacity int) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{Name: "Capacity Test Kitchen", SeatingCapacity: capacity}
	require.NoError(t, db.Create(r).Error)
	return r
}

func createParams(restaurantID uint, guests int, at string) CreateParams {
	return CreateParams{
		RestaurantID: restaurantID,
		CustomerName: "Guest",
		Date:         "2025-06-01",
		Time:         at,
		Guests:       guests,
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newTestDB(t), 120)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{RestaurantID: 1, CustomerName: "G", Date: "2025-06-01", Time: "19:00", Guests: 0})
	assert.Error(t, err, "zero guests must be rejected")

	_, err = svc.Create(ctx, CreateParams{RestaurantID: 1, CustomerName: "G", Date: "June 1st", Time: "19:00", Guests: 2})
	assert.Error(t, err, "unparseable date must be rejected")
}

func TestCapacityScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)

	// A: 6 guests at 19:00 -> pending
	a, err := svc.Create(ctx, createParams(r.ID, 6, "19:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, a.Status)

	// B: 6 more in the same slot -> 6+6 > 10
	_, err = svc.Create(ctx, createParams(r.ID, 6, "19:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	// Confirm A, then cancel it; capacity is freed.
	_, err = svc.Transition(ctx, a.ID, models.ReservationConfirmed, 1, false, "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, a.ID, models.ReservationCancelled, 1, false, "")
	require.NoError(t, err)

	// B retried now succeeds.
	b, err := svc.Create(ctx, createParams(r.ID, 6, "19:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, b.Status)
}

func TestCapacityIsPerSlotWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)

	_, err := svc.Create(ctx, createParams(r.ID, 8, "12:00"))
	require.NoError(t, err)

	// 19:00 is outside the 120-minute window around 12:00.
	_, err = svc.Create(ctx, createParams(r.ID, 8, "19:00"))
	assert.NoError(t, err, "non-overlapping slots must not contend")

	// 13:00 is inside the window and would overbook.
	_, err = svc.Create(ctx, createParams(r.ID, 8, "13:00"))
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestOverrideSkipsCapacityCheck(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 4)

	p := createParams(r.ID, 6, "19:00")
	_, err := svc.Create(ctx, p)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	p.Override = true
	res, err := svc.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Guests)
}

func TestConfirmRechecksCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)

	a, err := svc.Create(ctx, createParams(r.ID, 6, "19:00"))
	require.NoError(t, err)

	// Manager squeezed in an override party; slot now holds 6+8.
	over := createParams(r.ID, 8, "19:30")
	over.Override = true
	_, err = svc.Create(ctx, over)
	require.NoError(t, err)

	// Confirming A without override fails: 8 already there, 6 more > 10.
	_, err = svc.Transition(ctx, a.ID, models.ReservationConfirmed, 1, false, "")
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	// With explicit override it goes through.
	confirmed, err := svc.Transition(ctx, a.ID, models.ReservationConfirmed, 1, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.Status)
}

func TestNoOverbookingUnderConcurrentWriters(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	r := seedRestaurant(t, db, 10)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), createParams(r.ID, 3, "19:00"))
			if err != nil {
				assert.True(t, errors.Is(err, ErrCapacityExceeded), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	var total int64
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("restaurant_id = ? AND date = ? AND status IN ?",
			r.ID, "2025-06-01", []models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed}).
		Select("COALESCE(SUM(guests), 0)").
		Scan(&total).Error)
	assert.LessOrEqual(t, total, int64(10), "concurrent writers must never jointly overbook")
	assert.Greater(t, total, int64(0), "at least one writer must have succeeded")
}

func TestAvailableSeatsClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 5)

	free, err := svc.AvailableSeats(ctx, r.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 5, free)

	over := createParams(r.ID, 8, "19:00")
	over.Override = true
	_, err = svc.Create(ctx, over)
	require.NoError(t, err)

	free, err = svc.AvailableSeats(ctx, r.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, free, "availability never goes negative")
}

func TestDeletedRestaurantRejectsReservations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)
	require.NoError(t, db.Model(r).Update("is_deleted", true).Error)

	_, err := svc.Create(ctx, createParams(r.ID, 2, "19:00"))
	assert.True(t, errors.Is(err, ErrRestaurantNotFound))

	_, err = svc.AvailableSeats(ctx, r.ID, "2025-06-01")
	assert.True(t, errors.Is(err, ErrRestaurantNotFound))
}

func TestDeleteIsIndependentOfStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)

	a, err := svc.Create(ctx, createParams(r.ID, 2, "19:00"))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, a.ID, models.ReservationConfirmed, 1, false, "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, a.ID, models.ReservationCompleted, 1, false, "")
	require.NoError(t, err)

	// Completed is terminal for transitions, but deletion still works.
	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(ctx, a.ID)
	assert.True(t, errors.Is(err, ErrReservationNotFound))

	assert.True(t, errors.Is(svc.Delete(ctx, 9999), ErrReservationNotFound))
}

func TestTransitionRecordsHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 120)
	ctx := context.Background()
	r := seedRestaurant(t, db, 10)

	a, err := svc.Create(ctx, createParams(r.ID, 2, "19:00"))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, a.ID, models.ReservationConfirmed, 42, false, "confirmed by manager")
	require.NoError(t, err)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, models.ReservationConfirmed, got.StatusHistory[1].ToStatus)
	assert.Equal(t, uint(42), got.StatusHistory[1].ChangedBy)
}
