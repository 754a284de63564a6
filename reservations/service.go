package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/zacktam12/Restaurant-management-sub000/keylock"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidTransition   = errors.New("invalid reservation transition")
	ErrCapacityExceeded    = errors.New("restaurant full for that time")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// Service owns the reservation lifecycle. Creation and confirmation run
// inside a transaction that locks the restaurant row, and are additionally
// serialized per (restaurant, date) so two concurrent writers can never
// both pass the capacity check.
type Service struct {
	db          *gorm.DB
	locks       *keylock.KeyLock
	slotMinutes int
}

func NewService(db *gorm.DB, slotMinutes int) *Service {
	if slotMinutes <= 0 {
		slotMinutes = 120
	}
	return &Service{
		db:          db,
		locks:       keylock.New(),
		slotMinutes: slotMinutes,
	}
}

// CreateParams carries everything needed to place a reservation. Override
// skips the capacity check; callers must only set it for actors allowed to
// manage the restaurant.
type CreateParams struct {
	RestaurantID    uint
	CustomerID      *uint
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Date            string
	Time            string
	Guests          int
	SpecialRequests string
	Override        bool
	ActorID         uint
}

// Create places a new reservation in pending state after checking that the
// slot has capacity for the requested party.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Reservation, error) {
	r := &models.Reservation{
		RestaurantID:    p.RestaurantID,
		CustomerID:      p.CustomerID,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		CustomerPhone:   p.CustomerPhone,
		Date:            p.Date,
		Time:            p.Time,
		Guests:          p.Guests,
		Status:          models.ReservationPending,
		SpecialRequests: p.SpecialRequests,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(slotKey(p.RestaurantID, p.Date))
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurant, err := lockRestaurant(tx, p.RestaurantID)
		if err != nil {
			return err
		}
		if !p.Override {
			taken, err := s.overlappingGuests(tx, p.RestaurantID, p.Date, r.StartMinutes(), 0)
			if err != nil {
				return err
			}
			if taken+p.Guests > restaurant.SeatingCapacity {
				return fmt.Errorf("%w: %d seated or pending, %d requested, capacity %d",
					ErrCapacityExceeded, taken, p.Guests, restaurant.SeatingCapacity)
			}
		}
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		return tx.Create(&models.ReservationStatusHistory{
			ReservationID: r.ID,
			ToStatus:      models.ReservationPending,
			ChangedBy:     p.ActorID,
			Note:          "reservation created",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Transition moves a reservation to a new status. Entering confirmed
// re-runs the capacity check (unless overridden) because pending
// reservations may have been placed optimistically.
func (s *Service) Transition(ctx context.Context, id uint, to models.ReservationStatus, actorID uint, override bool, note string) (*models.Reservation, error) {
	var current models.Reservation
	if err := s.db.WithContext(ctx).First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	unlock := s.locks.Lock(slotKey(current.RestaurantID, current.Date))
	defer unlock()

	var result models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).First(&result, id).Error; err != nil {
			return err
		}
		if err := CanTransition(result.Status, to); err != nil {
			return err
		}
		if to == models.ReservationConfirmed && !override {
			restaurant, err := lockRestaurant(tx, result.RestaurantID)
			if err != nil {
				return err
			}
			// Exclude this reservation: its own guests are already counted
			// among the pending rows.
			taken, err := s.overlappingGuests(tx, result.RestaurantID, result.Date, result.StartMinutes(), result.ID)
			if err != nil {
				return err
			}
			if taken+result.Guests > restaurant.SeatingCapacity {
				return fmt.Errorf("%w: %d seated or pending, %d requested, capacity %d",
					ErrCapacityExceeded, taken, result.Guests, restaurant.SeatingCapacity)
			}
		}
		prev := result.Status
		if err := tx.Model(&result).Update("status", to).Error; err != nil {
			return err
		}
		result.Status = to
		return tx.Create(&models.ReservationStatusHistory{
			ReservationID: result.ID,
			FromStatus:    prev,
			ToStatus:      to,
			ChangedBy:     actorID,
			Note:          note,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AvailableSeats returns capacity minus guests across pending and confirmed
// reservations for the date, clamped at zero.
func (s *Service) AvailableSeats(ctx context.Context, restaurantID uint, date string) (int, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", restaurantID, false).
		First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRestaurantNotFound
		}
		return 0, err
	}

	var taken int64
	err = s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("restaurant_id = ? AND date = ? AND status IN ?",
			restaurantID, date, []models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed}).
		Select("COALESCE(SUM(guests), 0)").
		Scan(&taken).Error
	if err != nil {
		return 0, err
	}

	free := restaurant.SeatingCapacity - int(taken)
	if free < 0 {
		free = 0
	}
	return free, nil
}

// Get returns a reservation by ID.
func (s *Service) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).Preload("StatusHistory").First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ListByRestaurants returns reservations for the given restaurant scope,
// newest first. An empty scope yields an empty list.
func (s *Service) ListByRestaurants(ctx context.Context, restaurantIDs []uint) ([]models.Reservation, error) {
	if len(restaurantIDs) == 0 {
		return []models.Reservation{}, nil
	}
	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Where("restaurant_id IN ?", restaurantIDs).
		Order("date desc, time desc").
		Find(&out).Error
	return out, err
}

// ListByCustomer returns a customer's own reservations, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID uint) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// Delete removes a reservation permanently, regardless of status. This is
// distinct from cancellation, which keeps the row and its history.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return s.db.WithContext(ctx).
		Where("reservation_id = ?", id).
		Delete(&models.ReservationStatusHistory{}).Error
}

// overlappingGuests sums guests of pending/confirmed reservations on the
// date whose start times fall within one slot window of startMinutes.
// Overlap is computed in Go so the minute arithmetic stays portable across
// sqlite and postgres.
func (s *Service) overlappingGuests(tx *gorm.DB, restaurantID uint, date string, startMinutes int, excludeID uint) (int, error) {
	var rows []models.Reservation
	q := tx.Where("restaurant_id = ? AND date = ? AND status IN ?",
		restaurantID, date, []models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed})
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return 0, err
	}

	total := 0
	for _, r := range rows {
		diff := r.StartMinutes() - startMinutes
		if diff < 0 {
			diff = -diff
		}
		if diff < s.slotMinutes {
			total += r.Guests
		}
	}
	return total, nil
}

// withRowLock adds FOR UPDATE on backends that support it. sqlite has no
// row locks; there the per-slot keyed mutex is the serialization point.
func withRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func lockRestaurant(tx *gorm.DB, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := withRowLock(tx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

func slotKey(restaurantID uint, date string) string {
	return fmt.Sprintf("reservation:%d:%s", restaurantID, date)
}
