// Package gate authorizes partner API calls against stored API keys and
// tracks their usage.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var (
	// ErrDenied covers every authorization failure: unknown key, inactive
	// key, insufficient permission. Callers surface it as a generic
	// "not permitted" so key probing leaks nothing.
	ErrDenied = errors.New("api key not permitted")
	// ErrRateLimited means the key is valid but has exhausted its rolling
	// window; distinct from ErrDenied so callers can return 429.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Gate validates inbound partner API keys. On every successful
// authorization it atomically increments the key's usage counter and
// stamps last_used; deny paths have no side effects.
type Gate struct {
	db      *gorm.DB
	limiter *rateLimiter
}

// New builds a gate limiting each key to limitPerHour calls over a rolling
// hour. rdb may be nil, in which case the window is tracked in memory.
func New(db *gorm.DB, rdb *redis.Client, limitPerHour int) *Gate {
	if limitPerHour <= 0 {
		limitPerHour = 1000
	}
	return &Gate{
		db:      db,
		limiter: newRateLimiter(rdb, limitPerHour, time.Hour),
	}
}

// Authorize checks, in order: key exists, key is active, permission level
// covers the required permission, rate limit not exhausted. On success it
// applies the usage side effects and returns the key row (the caller needs
// its consumer group).
func (g *Gate) Authorize(ctx context.Context, key string, required models.ApiKeyPermission) (*models.ApiKey, error) {
	var apiKey models.ApiKey
	if err := g.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDenied
		}
		return nil, err
	}
	if !apiKey.IsActive {
		return nil, ErrDenied
	}
	if !apiKey.Permissions.Covers(required) {
		return nil, ErrDenied
	}

	ok, err := g.limiter.allow(ctx, apiKey.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRateLimited
	}

	now := time.Now()
	err = g.db.WithContext(ctx).Model(&apiKey).UpdateColumns(map[string]any{
		"usage_count": gorm.Expr("usage_count + ?", 1),
		"last_used":   &now,
	}).Error
	if err != nil {
		return nil, err
	}
	apiKey.UsageCount++
	apiKey.LastUsed = &now
	return &apiKey, nil
}
