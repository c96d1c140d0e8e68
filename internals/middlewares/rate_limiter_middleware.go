package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"timetable_backend/internals/configs"
	helper "timetable_backend/internals/helpers"
)

// newIPLimiter allows max requests per client IP per minute.
func newIPLimiter(max int, message string, skip func(*fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Next:       skip,
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter covers every endpoint except the probes.
func GlobalRateLimiter() fiber.Handler {
	return newIPLimiter(
		configs.GetEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		"Too many requests, try again later.",
		func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/health" || p == "/metrics"
		},
	)
}

// Generation requests fan out to workers, so they get a tighter budget.
func GenerateRateLimiter() fiber.Handler {
	return newIPLimiter(
		configs.GetEnvInt("GENERATE_RATE_LIMIT_PER_MINUTE", 10),
		"Too many generation requests, wait a minute.",
		nil,
	)
}
