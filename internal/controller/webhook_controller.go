package controller

import (
	"encoding/json"

	"product-notes-be/internal/dto"
	"product-notes-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Receive(ctx *fiber.Ctx) error
}

type webhookController struct {
	webhookService service.IWebhookService
}

func NewWebhookController(webhookService service.IWebhookService) IWebhookController {
	return &webhookController{
		webhookService: webhookService,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	r.Post("/webhooks", c.Receive)
}

// Receive answers in plain text, as Shopify only looks at the status code.
func (c *webhookController) Receive(ctx *fiber.Ctx) error {
	evt := dto.WebhookEvent{
		Topic: ctx.Get("X-Shopify-Topic"),
		Shop:  ctx.Get("X-Shopify-Shop-Domain"),
		// fasthttp reuses the body buffer after the handler returns.
		Payload: json.RawMessage(append([]byte(nil), ctx.Body()...)),
	}

	if _, err := c.webhookService.Ingest(ctx.UserContext(), &evt); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).SendString("Webhook error")
	}
	return ctx.Status(fiber.StatusOK).SendString("Webhook received successfully")
}
