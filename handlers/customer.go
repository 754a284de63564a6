package handlers

import (
	"net/http"
	"strconv"

	"github.com/zacktam12/Restaurant-management-sub000/bookings"
	"github.com/zacktam12/Restaurant-management-sub000/middleware"
	"github.com/zacktam12/Restaurant-management-sub000/models"
	"github.com/zacktam12/Restaurant-management-sub000/policy"
	"github.com/zacktam12/Restaurant-management-sub000/reservations"

	"github.com/gin-gonic/gin"
)

type CreateReservationRequest struct {
	RestaurantID    uint   `json:"restaurant_id" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	Guests          int    `json:"guests" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests"`
}

// CreateReservation places a reservation for the logged-in customer.
func (h *Handler) CreateReservation(c *gin.Context) {
	actor := middleware.Actor(c)

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionReservationWrite, policy.Target{CustomerID: &actor.ID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var user models.User
	if err := h.db.First(&user, actor.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), reservations.CreateParams{
		RestaurantID:    req.RestaurantID,
		CustomerID:      &actor.ID,
		CustomerName:    user.Name,
		CustomerEmail:   user.Email,
		CustomerPhone:   user.Phone,
		Date:            req.Date,
		Time:            req.Time,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		ActorID:         actor.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Reservation placed", "reservation": reservation})
}

// MyReservations returns the logged-in customer's reservations.
func (h *Handler) MyReservations(c *gin.Context) {
	actor := middleware.Actor(c)
	list, err := h.reservations.ListByCustomer(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "reservations": list})
}

// CancelReservation cancels one of the customer's own reservations.
func (h *Handler) CancelReservation(c *gin.Context) {
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

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionReservationWrite, policy.Target{CustomerID: reservation.CustomerID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	updated, err := h.reservations.Transition(c.Request.Context(), reservation.ID, models.ReservationCancelled, actor.ID, false, "cancelled by customer")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled", "reservation": updated})
}

type CreateBookingRequest struct {
	ServiceType  models.ServiceType `json:"service_type" binding:"required"`
	ServiceID    string             `json:"service_id" binding:"required"`
	Date         string             `json:"date" binding:"required"`
	Participants int                `json:"participants" binding:"required,min=1"`
}

// CreateBooking books an external partner service for the customer.
func (h *Handler) CreateBooking(c *gin.Context) {
	actor := middleware.Actor(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionBookingWrite, policy.Target{CustomerID: &actor.ID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}

	var user models.User
	if err := h.db.First(&user, actor.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), bookings.CreateParams{
		ServiceType:  req.ServiceType,
		ServiceID:    req.ServiceID,
		CustomerID:   actor.ID,
		CustomerName: user.Name,
		Date:         req.Date,
		Participants: req.Participants,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created", "booking": booking})
}

// MyBookings returns the customer's partner bookings.
func (h *Handler) MyBookings(c *gin.Context) {
	actor := middleware.Actor(c)
	list, err := h.bookings.ListByCustomer(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "bookings": list})
}

// GetBooking returns one of the customer's bookings.
func (h *Handler) GetBooking(c *gin.Context) {
	actor := middleware.Actor(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	dec := h.policy.Decide(c.Request.Context(), actor, policy.ActionBookingRead, policy.Target{CustomerID: &booking.CustomerID})
	if !dec.Allowed() {
		respondError(c, policy.ErrDenied)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
