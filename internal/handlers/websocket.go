package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"koalitos/backend/internal/realtime"
)

// WebSocketHandler upgrades authenticated connections and attaches them to
// the realtime hub.
type WebSocketHandler struct {
	hub *realtime.Hub
}

func NewWebSocketHandler(hub *realtime.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Upgrade gates the endpoint to websocket requests.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve runs the connection's read and write pumps until disconnect.
func (h *WebSocketHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			conn.Close()
			return
		}

		client := realtime.NewClient(h.hub, conn, userID)
		h.hub.Register <- client

		go client.WritePump()
		client.ReadPump()
	})
}

// Stats reports the number of connected clients.
func (h *WebSocketHandler) Stats(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"online": h.hub.OnlineCount()})
}
