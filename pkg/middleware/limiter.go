package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
)

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// RateLimit limits requests per client IP. A rejected request fails with
// *failure.RateLimitError and a Retry-After header.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	retryAfter := int(math.Ceil(cfg.Window.Seconds()))

	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return failure.NewRateLimitError("too many requests from "+c.IP(), retryAfter)
		},
	})
}
