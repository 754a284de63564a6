package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "reservation_portal_secret_2024"))

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// SlotWindowMinutes is the width of a service slot: two reservations on the
// same date overlap when their start times are less than this many minutes
// apart.
func SlotWindowMinutes() int {
	return getEnvInt("SLOT_WINDOW_MINUTES", 120)
}

// RateLimitPerHour caps authenticated partner API calls per key.
func RateLimitPerHour() int {
	return getEnvInt("RATE_LIMIT_PER_HOUR", 1000)
}

// PartnerBaseURL is the root of the partner booking API.
func PartnerBaseURL() string {
	return getEnv("PARTNER_BASE_URL", "http://localhost:9000")
}

// PartnerTimeoutSeconds bounds every remote partner call.
func PartnerTimeoutSeconds() int {
	return getEnvInt("PARTNER_TIMEOUT_SECONDS", 5)
}

// ReconcileWindowMinutes is how long a booking may sit in a non-terminal
// state before the sweep re-queries the partner.
func ReconcileWindowMinutes() int {
	return getEnvInt("RECONCILE_WINDOW_MINUTES", 10)
}

// RedisAddr enables Redis-backed rate limiting when set (host:port).
func RedisAddr() string {
	return os.Getenv("REDIS_ADDR")
}

// RabbitURL enables booking event publishing when set.
func RabbitURL() string {
	return os.Getenv("RABBITMQ_URL")
}

func InitDB() {
	var (
		dialector gorm.Dialector
		err       error
	)

	switch getEnv("DB_DRIVER", "sqlite") {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "password"),
			getEnv("DB_NAME", "restaurant_portal"),
			getEnv("DB_PORT", "5432"),
		)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(getEnv("DB_PATH", "restaurant_portal.db"))
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("Database connected and migrated")
}

// Migrate applies the schema for all models. Split out so tests can run it
// against their own databases.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.Reservation{},
		&models.ReservationStatusHistory{},
		&models.Booking{},
		&models.ApiKey{},
	)
}
