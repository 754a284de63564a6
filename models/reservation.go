package models

import (
	"errors"
	"time"
)

// ReservationStatus represents all possible states of a table reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

const (
	// DateLayout is the wire format for reservation and booking dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for reservation start times.
	TimeLayout = "15:04"
)

type Reservation struct {
	ID              uint                       `json:"id" gorm:"primaryKey"`
	RestaurantID    uint                       `json:"restaurant_id" gorm:"not null;index"`
	Restaurant      Restaurant                 `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CustomerID      *uint                      `json:"customer_id"` // nil for walk-in/guest reservations
	CustomerName    string                     `json:"customer_name" gorm:"not null"`
	CustomerEmail   string                     `json:"customer_email"`
	CustomerPhone   string                     `json:"customer_phone"`
	Date            string                     `json:"date" gorm:"not null;index"`
	Time            string                     `json:"time" gorm:"not null"`
	Guests          int                        `json:"guests" gorm:"not null"`
	Status          ReservationStatus          `json:"status" gorm:"not null;default:'pending'"`
	SpecialRequests string                     `json:"special_requests"`
	StatusHistory   []ReservationStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:ReservationID"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// Validate enforces record invariants before persistence.
func (r *Reservation) Validate() error {
	if r.RestaurantID == 0 {
		return errors.New("restaurant is required")
	}
	if r.CustomerName == "" {
		return errors.New("customer name is required")
	}
	if r.Guests < 1 {
		return errors.New("guests must be at least 1")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return errors.New("date must be formatted as " + DateLayout)
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return errors.New("time must be formatted as " + TimeLayout)
	}
	return nil
}

// StartMinutes returns the reservation start time as minutes since midnight.
func (r *Reservation) StartMinutes() int {
	t, err := time.Parse(TimeLayout, r.Time)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// ReservationStatusHistory tracks every status change for auditing.
type ReservationStatusHistory struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	ReservationID uint              `json:"reservation_id" gorm:"not null;index"`
	FromStatus    ReservationStatus `json:"from_status"`
	ToStatus      ReservationStatus `json:"to_status" gorm:"not null"`
	ChangedBy     uint              `json:"changed_by"` // user ID who triggered the transition, 0 for guests
	Note          string            `json:"note"`
	CreatedAt     time.Time         `json:"created_at"`
}
