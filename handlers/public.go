package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/models"
	"github.com/zacktam12/Restaurant-management-sub000/reservations"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns all non-deleted restaurants, optionally filtered
// by cuisine.
func (h *Handler) ListRestaurants(c *gin.Context) {
	q := h.db.Where("is_deleted = ?", false)
	if cuisine := c.Query("cuisine"); cuisine != "" {
		q = q.Where("cuisine = ?", cuisine)
	}
	var restaurants []models.Restaurant
	q.Order("rating desc").Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetRestaurant returns one restaurant with its menu
func (h *Handler) GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	err := h.db.Preload("MenuItems").
		Where("id = ? AND is_deleted = ?", c.Param("id"), false).
		First(&restaurant).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns a restaurant's available menu items
func (h *Handler) GetMenu(c *gin.Context) {
	var restaurant models.Restaurant
	err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&restaurant).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	var items []models.MenuItem
	h.db.Where("restaurant_id = ? AND is_available = ?", restaurant.ID, true).Find(&items)
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant.Name, "menu": items})
}

// GetAvailability returns remaining seats for a restaurant and date.
func (h *Handler) GetAvailability(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be formatted as " + models.DateLayout})
		return
	}

	free, err := h.reservations.AvailableSeats(c.Request.Context(), uint(id), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id":   id,
		"date":            date,
		"available_seats": free,
	})
}

// GetReservationLifecycle documents the reservation state machine.
func (h *Handler) GetReservationLifecycle(c *gin.Context) {
	states := []models.ReservationStatus{
		models.ReservationPending,
		models.ReservationConfirmed,
		models.ReservationCancelled,
		models.ReservationCompleted,
	}
	lifecycle := gin.H{}
	for _, s := range states {
		lifecycle[string(s)] = reservations.ValidTransitionsFrom(s)
	}
	c.JSON(http.StatusOK, gin.H{"lifecycle": lifecycle})
}
