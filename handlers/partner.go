package handlers

import (
	"net/http"
	"strconv"

	"github.com/zacktam12/Restaurant-management-sub000/bookings"
	"github.com/zacktam12/Restaurant-management-sub000/models"
	"github.com/zacktam12/Restaurant-management-sub000/reservations"

	"github.com/gin-gonic/gin"
)

// Partner facade: the same core primitives as the UI path, authenticated
// with an API key instead of a session. Write endpoints sit behind a
// write-permission key, reads behind a read-permission key.

type PartnerReservationRequest struct {
	RestaurantID    uint   `json:"restaurant_id" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	Guests          int    `json:"guests" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests"`
}

// PartnerCreateReservation books a table on behalf of a partner's customer
// (a guest — no local user account required).
func (h *Handler) PartnerCreateReservation(c *gin.Context) {
	var req PartnerReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), reservations.CreateParams{
		RestaurantID:    req.RestaurantID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Date:            req.Date,
		Time:            req.Time,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Reservation placed",
		"reservation": reservation,
		"consumer":    c.GetString("consumerGroup"),
	})
}

// PartnerGetReservation returns a single reservation.
func (h *Handler) PartnerGetReservation(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

// PartnerListRestaurants exposes the public restaurant catalog to partners.
func (h *Handler) PartnerListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	h.db.Where("is_deleted = ?", false).Order("rating desc").Find(&restaurants)
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

type PartnerBookingRequest struct {
	ServiceType  models.ServiceType `json:"service_type" binding:"required"`
	ServiceID    string             `json:"service_id" binding:"required"`
	CustomerID   uint               `json:"customer_id" binding:"required"`
	CustomerName string             `json:"customer_name" binding:"required"`
	Date         string             `json:"date" binding:"required"`
	Participants int                `json:"participants" binding:"required,min=1"`
}

// PartnerCreateBooking creates a cross-service booking through the
// reconciler, with the same at-most-once guarantees as the UI path.
func (h *Handler) PartnerCreateBooking(c *gin.Context) {
	var req PartnerBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), bookings.CreateParams{
		ServiceType:  req.ServiceType,
		ServiceID:    req.ServiceID,
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		Date:         req.Date,
		Participants: req.Participants,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created", "booking": booking})
}

// PartnerGetBooking returns a booking, reconciled against the remote
// service when it is still in a non-terminal state.
func (h *Handler) PartnerGetBooking(c *gin.Context) {
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
	if !booking.Status.Terminal() {
		if refreshed, err := h.bookings.ReconcileStatus(c.Request.Context(), booking.ID); err == nil {
			booking = refreshed
		}
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
