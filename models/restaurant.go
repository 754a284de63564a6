package models

import (
	"errors"
	"time"
)

type Restaurant struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ManagerID       *uint      `json:"manager_id" gorm:"index"` // nil until an admin assigns a manager
	Manager         *User      `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	Name            string     `json:"name" gorm:"not null"`
	Cuisine         string     `json:"cuisine"`
	Address         string     `json:"address"`
	Description     string     `json:"description"`
	SeatingCapacity int        `json:"seating_capacity" gorm:"not null;default:0"`
	Rating          float64    `json:"rating" gorm:"default:0"`
	IsDeleted       bool       `json:"is_deleted" gorm:"default:false"`
	MenuItems       []MenuItem `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate enforces record invariants before persistence.
func (r *Restaurant) Validate() error {
	if r.Name == "" {
		return errors.New("restaurant name is required")
	}
	if r.SeatingCapacity < 0 {
		return errors.New("seating capacity must not be negative")
	}
	return nil
}

type MenuItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	Category     string    `json:"category"`
	IsAvailable  bool      `json:"is_available" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *MenuItem) Validate() error {
	if m.Name == "" {
		return errors.New("menu item name is required")
	}
	if m.Price < 0 {
		return errors.New("menu item price must not be negative")
	}
	return nil
}
