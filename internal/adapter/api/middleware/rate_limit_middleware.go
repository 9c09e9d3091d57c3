package middleware

import (
	"fmt"
	"math"

	"github.com/labstack/echo/v4"

	"hitrank/internal/infrastructure/ratelimit"
	"hitrank/pkg/errors"
	"hitrank/pkg/response"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.RateLimiter
}

func NewRateLimitMiddleware(limiter *ratelimit.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
	}
}

// Limit throttles an authenticated caller's action. It must run after
// Authenticate.
func (m *RateLimitMiddleware) Limit(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := UID(c)
			if uid == "" {
				return next(c)
			}

			allowed, wait := m.limiter.Allow(uid, action)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", fmt.Sprint(retryAfter))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter)))
			}

			return next(c)
		}
	}
}
