package serverutils

import (
	"time"

	"product-notes-be/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records count and latency per route template, so ids in
// the path do not explode label cardinality.
func MetricsMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status, _ = StatusFor(err)
		}
		metrics.RecordRequest(ctx.Method(), ctx.Route().Path, status, time.Since(start))
		return err
	}
}
