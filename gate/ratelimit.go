package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// rateLimiter counts authorized calls per key over a rolling window. With
// a Redis client the counter is shared across instances (INCR + TTL);
// without one it falls back to an in-memory window, which is enough for a
// single process.
type rateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[uint]*localWindow
}

type localWindow struct {
	start time.Time
	count int
}

func newRateLimiter(rdb *redis.Client, limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		rdb:     rdb,
		limit:   limit,
		window:  window,
		windows: make(map[uint]*localWindow),
	}
}

func (l *rateLimiter) allow(ctx context.Context, keyID uint) (bool, error) {
	if l.rdb != nil {
		return l.allowRedis(ctx, keyID)
	}
	return l.allowLocal(keyID), nil
}

func (l *rateLimiter) allowRedis(ctx context.Context, keyID uint) (bool, error) {
	key := fmt.Sprintf("ratelimit:apikey:%d", keyID)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}

func (l *rateLimiter) allowLocal(keyID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[keyID]
	if !ok || time.Since(w.start) >= l.window {
		l.windows[keyID] = &localWindow{start: time.Now(), count: 1}
		return true
	}
	w.count++
	return w.count <= l.limit
}
