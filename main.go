package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/bookings"
	"github.com/zacktam12/Restaurant-management-sub000/config"
	"github.com/zacktam12/Restaurant-management-sub000/gate"
	"github.com/zacktam12/Restaurant-management-sub000/handlers"
	"github.com/zacktam12/Restaurant-management-sub000/policy"
	"github.com/zacktam12/Restaurant-management-sub000/reservations"
	"github.com/zacktam12/Restaurant-management-sub000/routes"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	config.InitDB()

	// Optional Redis for distributed API-key rate limiting
	var redisClient *redis.Client
	if addr := config.RedisAddr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Fatal("Failed to connect to Redis")
		}
		logrus.WithField("addr", addr).Info("Redis rate limiting enabled")
	}

	// Optional RabbitMQ for booking lifecycle events
	var publisher *bookings.Publisher
	if url := config.RabbitURL(); url != "" {
		var err error
		publisher, err = bookings.NewPublisher(url)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
		}
		defer publisher.Close()
		logrus.Info("Booking event publishing enabled")
	}

	scopes := policy.NewScopeResolver(config.DB)
	accessPolicy := policy.New(scopes)
	reservationSvc := reservations.NewService(config.DB, config.SlotWindowMinutes())
	partnerClient := bookings.NewHTTPClient(
		config.PartnerBaseURL(),
		time.Duration(config.PartnerTimeoutSeconds())*time.Second,
	)
	reconciler := bookings.NewReconciler(config.DB, partnerClient, publisher,
		time.Duration(config.PartnerTimeoutSeconds())*time.Second)
	keyGate := gate.New(config.DB, redisClient, config.RateLimitPerHour())

	// Background sweep: repair bookings stuck in a non-terminal state.
	reconcileWindow := time.Duration(config.ReconcileWindowMinutes()) * time.Minute
	go func() {
		ticker := time.NewTicker(reconcileWindow)
		defer ticker.Stop()
		for range ticker.C {
			repaired, err := reconciler.ReconcileStale(context.Background(), reconcileWindow)
			if err != nil {
				logrus.WithError(err).Error("reconciliation sweep failed")
				continue
			}
			if repaired > 0 {
				logrus.WithField("repaired", repaired).Info("reconciliation sweep complete")
			}
		}
	}()

	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-API-Key")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant Reservation Management API",
			"version": "1.0.0",
		})
	})

	h := handlers.New(config.DB, accessPolicy, reservationSvc, reconciler)
	routes.Setup(r, h, keyGate)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logrus.WithField("port", port).Info("Server running")
	if err := r.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
}
