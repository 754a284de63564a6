package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/middleware"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ── User administration ─────────────────────────────────────────────────────

// AdminListUsers returns all users.
func (h *Handler) AdminListUsers(c *gin.Context) {
	var users []models.User
	h.db.Order("id asc").Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// AdminUpdateUserRole changes a user's role.
func (h *Handler) AdminUpdateUserRole(c *gin.Context) {
	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	h.db.Model(&user).Update("role", req.Role)
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}

// AdminDeleteUser removes a user account. Restaurants they managed become
// unassigned rather than cascading away.
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if user.ID == middleware.GetUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	h.db.Model(&models.Restaurant{}).Where("manager_id = ?", user.ID).Update("manager_id", nil)
	h.db.Delete(&user)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// ── Restaurant administration ───────────────────────────────────────────────

type CreateRestaurantRequest struct {
	Name            string  `json:"name" binding:"required"`
	Cuisine         string  `json:"cuisine"`
	Address         string  `json:"address"`
	Description     string  `json:"description"`
	SeatingCapacity int     `json:"seating_capacity" binding:"gte=0"`
	Rating          float64 `json:"rating"`
	ManagerID       *uint   `json:"manager_id"`
}

// AdminCreateRestaurant creates a restaurant, optionally pre-assigned.
func (h *Handler) AdminCreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant := models.Restaurant{
		ManagerID:       req.ManagerID,
		Name:            req.Name,
		Cuisine:         req.Cuisine,
		Address:         req.Address,
		Description:     req.Description,
		SeatingCapacity: req.SeatingCapacity,
		Rating:          req.Rating,
	}
	if err := restaurant.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if restaurant.ManagerID != nil {
		var manager models.User
		if err := h.db.Where("id = ? AND role = ?", *restaurant.ManagerID, models.RoleManager).First(&manager).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Manager not found"})
			return
		}
	}
	if err := h.db.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create restaurant"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

type AssignManagerRequest struct {
	ManagerID *uint `json:"manager_id"` // nil unassigns
}

// AdminAssignManager assigns or unassigns the owning manager. Ownership
// takes effect immediately: scope is resolved fresh on every request.
func (h *Handler) AdminAssignManager(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ManagerID != nil {
		var manager models.User
		if err := h.db.Where("id = ? AND role = ?", *req.ManagerID, models.RoleManager).First(&manager).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Manager not found"})
			return
		}
	}

	h.db.Model(&restaurant).Update("manager_id", req.ManagerID)
	c.JSON(http.StatusOK, gin.H{"message": "Manager assignment updated", "restaurant": restaurant})
}

// AdminDeleteRestaurant soft-deletes a restaurant. Existing reservations
// keep their rows but the restaurant stops accepting new ones.
func (h *Handler) AdminDeleteRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := h.db.Where("id = ? AND is_deleted = ?", c.Param("id"), false).First(&restaurant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	h.db.Model(&restaurant).Update("is_deleted", true)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// AdminListReservations returns every reservation in the system.
func (h *Handler) AdminListReservations(c *gin.Context) {
	var list []models.Reservation
	h.db.Preload("Restaurant").Order("date desc, time desc").Find(&list)
	c.JSON(http.StatusOK, gin.H{"count": len(list), "reservations": list})
}

// AdminForceReservationStatus transitions any reservation, bypassing the
// advisory capacity check. State machine rules still apply.
func (h *Handler) AdminForceReservationStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation id"})
		return
	}

	var req UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.reservations.Transition(c.Request.Context(), uint(id), req.Status, middleware.GetUserID(c), true, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation updated", "reservation": updated})
}

// ── API key administration ──────────────────────────────────────────────────

type CreateApiKeyRequest struct {
	ServiceName   string                  `json:"service_name" binding:"required"`
	ConsumerGroup string                  `json:"consumer_group" binding:"required"`
	Permissions   models.ApiKeyPermission `json:"permissions" binding:"required"`
}

// AdminCreateApiKey issues a new partner API key.
func (h *Handler) AdminCreateApiKey(c *gin.Context) {
	var req CreateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Permissions {
	case models.PermissionRead, models.PermissionWrite, models.PermissionReadWrite:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permissions must be read, write or read_write"})
		return
	}

	apiKey := models.ApiKey{
		Key:           uuid.NewString(),
		ServiceName:   req.ServiceName,
		ConsumerGroup: req.ConsumerGroup,
		Permissions:   req.Permissions,
		IsActive:      true,
	}
	if err := h.db.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "API key created", "api_key": apiKey})
}

// AdminListApiKeys returns all issued keys with usage counters.
func (h *Handler) AdminListApiKeys(c *gin.Context) {
	var keys []models.ApiKey
	h.db.Order("id asc").Find(&keys)
	c.JSON(http.StatusOK, gin.H{"count": len(keys), "api_keys": keys})
}

type UpdateApiKeyRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AdminUpdateApiKey activates or deactivates a key. is_active gates all
// authorization regardless of permission level.
func (h *Handler) AdminUpdateApiKey(c *gin.Context) {
	var apiKey models.ApiKey
	if err := h.db.First(&apiKey, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	var req UpdateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.db.Model(&apiKey).Update("is_active", *req.IsActive)
	c.JSON(http.StatusOK, gin.H{"message": "API key updated", "api_key": apiKey})
}

// ── Reconciliation ──────────────────────────────────────────────────────────

// AdminRunReconciliation sweeps stale bookings immediately instead of
// waiting for the background interval.
func (h *Handler) AdminRunReconciliation(c *gin.Context) {
	windowMinutes := 0
	if v := c.Query("window_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			windowMinutes = n
		}
	}

	repaired, err := h.bookings.ReconcileStale(c.Request.Context(), time.Duration(windowMinutes)*time.Minute)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reconciliation complete", "repaired": repaired})
}
