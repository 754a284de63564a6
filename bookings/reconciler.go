// Package bookings coordinates local booking records with external partner
// services (tours, hotels, taxis). Creation is at-most-once per
// (customer, service type, service, date) tuple, remote calls are retried
// only under an idempotency key, and a reconciliation sweep repairs rows
// left behind by partial failures.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/keylock"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrIdempotentConflict means a non-cancelled booking already exists
	// for the same (customer, service type, service, date) tuple.
	ErrIdempotentConflict = errors.New("duplicate booking attempt")
	// ErrServiceUnavailable means the partner could not be reached; the
	// booking was not created anywhere and the caller may retry later.
	ErrServiceUnavailable = errors.New("partner service unavailable")
	// ErrRequiresReconciliation means the remote booking exists but the
	// local record could not be fully updated. The sweep repairs it; the
	// caller must not re-book.
	ErrRequiresReconciliation = errors.New("booking requires reconciliation")
	ErrBookingNotFound        = errors.New("booking not found")
)

type Reconciler struct {
	db        *gorm.DB
	client    PartnerBookingClient
	publisher *Publisher
	locks     *keylock.KeyLock
	breaker   *breaker
	timeout   time.Duration
	log       *logrus.Entry
}

// NewReconciler wires the reconciler. publisher may be nil to disable
// event publishing.
func NewReconciler(db *gorm.DB, client PartnerBookingClient, publisher *Publisher, timeout time.Duration) *Reconciler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Reconciler{
		db:        db,
		client:    client,
		publisher: publisher,
		locks:     keylock.New(),
		breaker:   newBreaker(5, 30*time.Second),
		timeout:   timeout,
		log:       logrus.WithField("component", "booking_reconciler"),
	}
}

// CreateParams describes a booking request against a partner catalog.
type CreateParams struct {
	ServiceType  models.ServiceType
	ServiceID    string
	CustomerID   uint
	CustomerName string
	Date         string
	Participants int
}

// CreateBooking persists a local booking and books it with the partner.
// The local pending row is written first and carries the idempotency key,
// so the remote call can always be retried without double-booking.
func (r *Reconciler) CreateBooking(ctx context.Context, p CreateParams) (*models.Booking, error) {
	booking := &models.Booking{
		ServiceType:    p.ServiceType,
		ServiceID:      p.ServiceID,
		CustomerID:     p.CustomerID,
		Date:           p.Date,
		Participants:   p.Participants,
		Status:         models.BookingPending,
		IdempotencyKey: uuid.NewString(),
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(tupleKey(p.CustomerID, p.ServiceType, p.ServiceID, p.Date))
	defer unlock()

	// At-most-once: reject the tuple if a non-cancelled booking exists,
	// and insert the pending row in the same transaction.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Booking{}).
			Where("customer_id = ? AND service_type = ? AND service_id = ? AND date = ? AND status <> ?",
				p.CustomerID, p.ServiceType, p.ServiceID, p.Date, models.BookingCancelled).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrIdempotentConflict
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}

	remote, err := r.book(ctx, booking, p.CustomerName)
	if err != nil {
		// Nothing exists remotely; withdraw the pending row so a retry
		// starts clean.
		if delErr := r.db.WithContext(ctx).Delete(booking).Error; delErr != nil {
			r.log.WithError(delErr).WithField("booking_id", booking.ID).
				Error("failed to withdraw pending booking after remote failure")
			return nil, fmt.Errorf("%w: booking %d left pending", ErrRequiresReconciliation, booking.ID)
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	now := time.Now()
	updates := map[string]any{
		"status":         remote.Status,
		"remote_ref":     remote.Reference,
		"last_synced_at": &now,
	}
	if err := r.db.WithContext(ctx).Model(booking).Updates(updates).Error; err != nil {
		// Remote booking exists but the local row still says pending. The
		// sweep will re-query the partner under the stored idempotency key.
		r.log.WithError(err).WithField("booking_id", booking.ID).
			Error("remote booked but local update failed")
		return booking, fmt.Errorf("%w: booking %d", ErrRequiresReconciliation, booking.ID)
	}
	booking.Status = remote.Status
	booking.RemoteRef = remote.Reference
	booking.LastSyncedAt = &now

	if err := r.publisher.Publish("booking.created", booking); err != nil {
		r.log.WithError(err).Warn("booking event publish failed")
	}
	return booking, nil
}

// ReconcileStatus re-queries the partner and aligns the local status with
// the remote one. Rows that never learned their remote reference are
// re-booked under their stored idempotency key, which the partner
// deduplicates.
func (r *Reconciler) ReconcileStatus(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	var remoteStatus models.BookingStatus
	if booking.RemoteRef == "" {
		remote, err := r.book(ctx, &booking, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		booking.RemoteRef = remote.Reference
		remoteStatus = remote.Status
	} else {
		var err error
		remoteStatus, err = r.getStatus(ctx, booking.RemoteRef)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
	}

	now := time.Now()
	updates := map[string]any{
		"status":         remoteStatus,
		"remote_ref":     booking.RemoteRef,
		"last_synced_at": &now,
	}
	if err := r.db.WithContext(ctx).Model(&booking).Updates(updates).Error; err != nil {
		return nil, err
	}
	if booking.Status != remoteStatus {
		r.log.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"from":       booking.Status,
			"to":         remoteStatus,
		}).Info("booking status reconciled")
	}
	booking.Status = remoteStatus
	booking.LastSyncedAt = &now

	if err := r.publisher.Publish("booking.reconciled", &booking); err != nil {
		r.log.WithError(err).Warn("booking event publish failed")
	}
	return &booking, nil
}

// ReconcileStale sweeps every booking that has sat in a non-terminal state
// beyond the window and reconciles it. Failures are logged and skipped,
// never swallowed silently; the sweep returns how many rows it repaired.
func (r *Reconciler) ReconcileStale(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)
	var stale []models.Booking
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, b := range stale {
		if _, err := r.ReconcileStatus(ctx, b.ID); err != nil {
			r.log.WithError(err).WithField("booking_id", b.ID).Warn("sweep could not reconcile booking")
			continue
		}
		repaired++
	}
	return repaired, nil
}

// Get returns a booking by ID.
func (r *Reconciler) Get(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ListByCustomer returns a customer's bookings, newest first.
func (r *Reconciler) ListByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (r *Reconciler) book(ctx context.Context, b *models.Booking, customerName string) (*RemoteBooking, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var remote *RemoteBooking
	err := r.breaker.call(func() error {
		var err error
		remote, err = r.client.Book(callCtx, b.ServiceType, b.ServiceID, b.IdempotencyKey, BookingDetails{
			CustomerName: customerName,
			Date:         b.Date,
			Participants: b.Participants,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return remote, nil
}

func (r *Reconciler) getStatus(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var status models.BookingStatus
	err := r.breaker.call(func() error {
		var err error
		status, err = r.client.GetStatus(callCtx, remoteRef)
		return err
	})
	return status, err
}

func tupleKey(customerID uint, serviceType models.ServiceType, serviceID, date string) string {
	return fmt.Sprintf("booking:%d:%s:%s:%s", customerID, serviceType, serviceID, date)
}
