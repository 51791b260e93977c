package serverutils

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimit caps the overall request rate with a token bucket. rps is the
// sustained rate, burst the short spike allowance.
func RateLimit(rps int, burst int) fiber.Handler {
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 10
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(ctx *fiber.Ctx) error {
		if !limiter.Allow() {
			log.Printf("[HTTP] Rate limit exceeded for %s from %s", ctx.Path(), ctx.IP())
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(429, "Too Many Requests"))
		}
		return ctx.Next()
	}
}
