package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches an upgraded connection to the shop's feed and blocks until
// the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, shop string) {
	client := &Client{Hub: hub, Conn: c, Shop: shop, Send: make(chan []byte, sendBuffer)}
	hub.register(client)

	go client.writePump()
	client.readPump()
}
