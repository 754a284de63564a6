package models

import (
	"errors"
	"time"
)

// ServiceType identifies which partner catalog a booking belongs to.
type ServiceType string

const (
	ServiceTour  ServiceType = "tour"
	ServiceHotel ServiceType = "hotel"
	ServiceTaxi  ServiceType = "taxi"
)

func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceTour, ServiceHotel, ServiceTaxi:
		return true
	}
	return false
}

// BookingStatus mirrors the reservation vocabulary so local rows can track
// the remote service's lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Terminal reports whether the status can no longer change remotely.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// Booking is the local record of a reservation made against an external
// partner service (tour, hotel, taxi).
type Booking struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	ServiceType    ServiceType   `json:"service_type" gorm:"not null;index:idx_booking_tuple"`
	ServiceID      string        `json:"service_id" gorm:"not null;index:idx_booking_tuple"`
	CustomerID     uint          `json:"customer_id" gorm:"not null;index:idx_booking_tuple"`
	Date           string        `json:"date" gorm:"not null;index:idx_booking_tuple"`
	Participants   int           `json:"participants" gorm:"not null"`
	Status         BookingStatus `json:"status" gorm:"not null;default:'pending'"`
	IdempotencyKey string        `json:"idempotency_key" gorm:"uniqueIndex;not null"`
	RemoteRef      string        `json:"remote_ref"`
	LastSyncedAt   *time.Time    `json:"last_synced_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (b *Booking) Validate() error {
	if !ValidServiceType(b.ServiceType) {
		return errors.New("service type must be tour, hotel or taxi")
	}
	if b.ServiceID == "" {
		return errors.New("service id is required")
	}
	if b.CustomerID == 0 {
		return errors.New("customer is required")
	}
	if b.Participants < 1 {
		return errors.New("participants must be at least 1")
	}
	if _, err := time.Parse(DateLayout, b.Date); err != nil {
		return errors.New("date must be formatted as " + DateLayout)
	}
	return nil
}
