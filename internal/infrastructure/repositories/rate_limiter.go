package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/shopcore/domain"
)

// RateLimiterImpl implements domain.RateLimiter with a fixed window
// counter in Redis: INCR per attempt, window TTL set on first hit.
type RateLimiterImpl struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a Redis fixed-window rate limiter.
func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RateLimiterImpl {
	return &RateLimiterImpl{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow implements domain.RateLimiter.
func (l *RateLimiterImpl) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	fullKey := l.prefix + key

	count, err := l.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, fullKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate window: %w", err)
		}
	}

	if count > l.limit {
		ttl, err := l.client.TTL(ctx, fullKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}

var _ domain.RateLimiter = (*RateLimiterImpl)(nil)
