package controller

import (
	"product-notes-be/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
}

type systemController struct{}

func NewSystemController() ISystemController {
	return &systemController{}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})
	r.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
