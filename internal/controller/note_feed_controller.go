package controller

import (
	"product-notes-be/internal/pkg/logger"
	"product-notes-be/internal/pkg/serverutils"
	internalWS "product-notes-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type INoteFeedController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type noteFeedController struct {
	hub    *internalWS.Hub
	auth   fiber.Handler
	logger logger.ILogger
}

func NewNoteFeedController(hub *internalWS.Hub, auth fiber.Handler, logger logger.ILogger) INoteFeedController {
	return &noteFeedController{hub: hub, auth: auth, logger: logger}
}

func (c *noteFeedController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/feed")
	h.Use(c.auth)
	h.Get("/notes", c.ServeWs)
}

// ServeWs upgrades to a websocket that streams the shop's note events.
func (c *noteFeedController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	shop := serverutils.ShopFrom(ctx)
	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("NOTE_FEED", "Starting WebSocket session", map[string]interface{}{"shop": shop})
		internalWS.ServeWs(c.hub, conn, shop)
		c.logger.Info("NOTE_FEED", "WebSocket session ended", map[string]interface{}{"shop": shop})
	})(ctx)
}
