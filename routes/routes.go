package routes

import (
	"github.com/zacktam12/Restaurant-management-sub000/gate"
	"github.com/zacktam12/Restaurant-management-sub000/handlers"
	"github.com/zacktam12/Restaurant-management-sub000/middleware"
	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/gin-gonic/gin"
)

func Setup(r *gin.Engine, h *handlers.Handler, g *gate.Gate) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)
		public.GET("/restaurants/:id/availability", h.GetAvailability)

		public.GET("/reservation-lifecycle", h.GetReservationLifecycle)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
		auth.PUT("/profile", h.UpdateProfile)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/reservations", h.CreateReservation)
		customer.GET("/reservations", h.MyReservations)
		customer.PUT("/reservations/:id/cancel", h.CancelReservation)

		customer.POST("/bookings", h.CreateBooking)
		customer.GET("/bookings", h.MyBookings)
		customer.GET("/bookings/:id", h.GetBooking)
	}

	// ── Manager routes ─────────────────────────────────────────────
	manager := r.Group("/api/manager")
	manager.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleManager, models.RoleAdmin))
	{
		manager.GET("/restaurants", h.MyRestaurants)
		manager.PUT("/restaurants/:id", h.UpdateRestaurant)

		manager.POST("/restaurants/:id/menu", h.AddMenuItem)
		manager.PUT("/menu/:itemId", h.UpdateMenuItem)
		manager.DELETE("/menu/:itemId", h.DeleteMenuItem)

		manager.GET("/reservations", h.ListReservations)
		manager.PUT("/reservations/:id/status", h.UpdateReservationStatus)
		manager.DELETE("/reservations/:id", h.DeleteReservation)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.AdminListUsers)
		admin.PUT("/users/:id/role", h.AdminUpdateUserRole)
		admin.DELETE("/users/:id", h.AdminDeleteUser)

		admin.POST("/restaurants", h.AdminCreateRestaurant)
		admin.PUT("/restaurants/:id/manager", h.AdminAssignManager)
		admin.DELETE("/restaurants/:id", h.AdminDeleteRestaurant)

		admin.GET("/reservations", h.AdminListReservations)
		admin.PUT("/reservations/:id/status", h.AdminForceReservationStatus)

		admin.POST("/api-keys", h.AdminCreateApiKey)
		admin.GET("/api-keys", h.AdminListApiKeys)
		admin.PUT("/api-keys/:id", h.AdminUpdateApiKey)

		admin.POST("/reconcile", h.AdminRunReconciliation)
	}

	// ── Partner facade (API-key gated) ─────────────────────────────
	partner := r.Group("/api/partner")
	{
		read := partner.Group("")
		read.Use(middleware.ApiKeyRequired(g, models.PermissionRead))
		{
			read.GET("/restaurants", h.PartnerListRestaurants)
			read.GET("/restaurants/:id/availability", h.GetAvailability)
			read.GET("/reservations/:id", h.PartnerGetReservation)
			read.GET("/bookings/:id", h.PartnerGetBooking)
		}

		write := partner.Group("")
		write.Use(middleware.ApiKeyRequired(g, models.PermissionWrite))
		{
			write.POST("/reservations", h.PartnerCreateReservation)
			write.POST("/bookings", h.PartnerCreateBooking)
		}
	}
}
