package handlers

import (
	"errors"
	"net/http"

	"github.com/zacktam12/Restaurant-management-sub000/bookings"
	"github.com/zacktam12/Restaurant-management-sub000/policy"
	"github.com/zacktam12/Restaurant-management-sub000/reservations"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler carries the core services the HTTP layer dispatches into.
// Authorization always goes through the policy with an explicit actor.
type Handler struct {
	db           *gorm.DB
	policy       *policy.Policy
	reservations *reservations.Service
	bookings     *bookings.Reconciler
}

func New(db *gorm.DB, pol *policy.Policy, resSvc *reservations.Service, rec *bookings.Reconciler) *Handler {
	return &Handler{
		db:           db,
		policy:       pol,
		reservations: resSvc,
		bookings:     rec,
	}
}

// respondError maps core errors onto HTTP responses. Authorization
// failures stay generic; recoverable conflicts tell the caller what to do
// next without exposing internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not permitted"})
	case errors.Is(err, reservations.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "Restaurant full for that time"})
	case errors.Is(err, reservations.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, bookings.ErrIdempotentConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "An active booking already exists for this service and date"})
	case errors.Is(err, bookings.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again later"})
	case errors.Is(err, bookings.ErrRequiresReconciliation):
		c.JSON(http.StatusAccepted, gin.H{"message": "Booking accepted, confirmation is being finalized"})
	case errors.Is(err, reservations.ErrRestaurantNotFound),
		errors.Is(err, reservations.ErrReservationNotFound),
		errors.Is(err, bookings.ErrBookingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
