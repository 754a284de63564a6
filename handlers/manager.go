package handlers

import (
	"net/http"
	"strconv"

	"github.com/zacktam12/Restaurant-management-sub000/middleware"
	"github.com/zacktam12/Restaurant-management-sub000/models"
	"github.com/zacktam12/Restaurant-management-sub000/policy"

	"github.com/gin-gonic/gin"
)

// MyRestaurants lists the restaurants in the manager's current scope.
func (h *Handler) MyRestaurants(c *gin.Context) {
	actor := middleware.Actor(c)
	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionRestaurantList, policy.Target{})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	restaurants := []models.Restaurant{}
	if len(dec.RestaurantIDs) > 0 || dec.Effect == policy.Allow {
		q := h.db.Preload("MenuItems").Where("is_deleted = ?", false)
		if dec.Effect == policy.Scoped {
			q = q.Where("id IN ?", dec.RestaurantIDs)
		}
		q.Find(&restaurants)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// UpdateRestaurant updates details of a restaurant in the manager's scope.
// Capacity, name, cuisine and the like are updatable; ownership is not.
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	actor := middleware.Actor(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	restaurantID := uint(id)

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionRestaurantUpdate, policy.Target{RestaurantID: &restaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND is_deleted = ?", restaurantID, false).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Only allow safe fields
	allowed := map[string]bool{"name": true, "cuisine": true, "address": true, "description": true, "seating_capacity": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	if seats, ok := update["seating_capacity"].(float64); ok && seats < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seating capacity must not be negative"})
		return
	}

	h.db.Model(&restaurant).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gte=0"`
	Category    string  `json:"category"`
}

// AddMenuItem adds an item to a restaurant in the manager's scope.
func (h *Handler) AddMenuItem(c *gin.Context) {
	actor := middleware.Actor(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	restaurantID := uint(id)

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionMenuWrite, policy.Target{RestaurantID: &restaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		IsAvailable:  true,
	}
	if err := item.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem updates a menu item owned through the manager's scope.
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	actor := middleware.Actor(c)
	itemID := c.Param("itemId")

	var item models.MenuItem
	if err := h.db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionMenuWrite, policy.Target{RestaurantID: &item.RestaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	allowed := map[string]bool{"name": true, "description": true, "price": true, "category": true, "is_available": true}
	update := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			update[k] = v
		}
	}
	if price, ok := update["price"].(float64); ok && price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	h.db.Model(&item).Updates(update)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes a menu item in the manager's scope.
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	actor := middleware.Actor(c)
	itemID := c.Param("itemId")

	var item models.MenuItem
	if err := h.db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionMenuWrite, policy.Target{RestaurantID: &item.RestaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	h.db.Delete(&item)
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// ListReservations returns reservations across the manager's scope.
func (h *Handler) ListReservations(c *gin.Context) {
	actor := middleware.Actor(c)
	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionReservationList, policy.Target{})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	list, err := h.reservations.ListByRestaurants(c.Request.Context(), dec.RestaurantIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "reservations": list})
}

type UpdateReservationStatusRequest struct {
	Status   models.ReservationStatus `json:"status" binding:"required"`
	Override bool                     `json:"override"`
	Note     string                   `json:"note"`
}

// UpdateReservationStatus moves a reservation in the manager's scope
// through the state machine. Override skips the advisory capacity check on
// confirmation, which scoped managers are entitled to.
func (h *Handler) UpdateReservationStatus(c *gin.Context) {
	actor := middleware.Actor(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation id"})
		return
	}

	reservation, err := h.reservations.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionReservationWrite, policy.Target{RestaurantID: &reservation.RestaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var req UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.reservations.Transition(c.Request.Context(), reservation.ID, req.Status, actor.ID, req.Override, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation updated", "reservation": updated})
}

// DeleteReservation removes a reservation permanently (any status).
func (h *Handler) DeleteReservation(c *gin.Context) {
	actor := middleware.Actor(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation id"})
		return
	}

	reservation, err := h.reservations.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionReservationDelete, policy.Target{RestaurantID: &reservation.RestaurantID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	if err := h.reservations.Delete(c.Request.Context(), reservation.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted"})
}
