package security

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-client limiter backed by redis
// INCR. It mounts as router middleware in front of the purchase and
// redemption routes.
type RateLimiter struct {
	redis     *redis.Client
	perMinute int64
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{redis: redisClient, perMinute: int64(perMinute)}
}

// Middleware counts requests per authenticated user, falling back to
// the client IP. Redis being down fails open: throttling is protection,
// not a correctness requirement.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identity := e.RealIP()
		if e.Auth != nil {
			identity = "user:" + e.Auth.Id
		}
		key := fmt.Sprintf("ratelimit:%s", identity)
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(ctx, key, time.Minute)
			}
			if count > r.perMinute {
				return apis.NewApiError(http.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
			}
		}
		return e.Next()
	}
}
