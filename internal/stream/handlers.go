package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts GET /ws/:userID. The caller must be signed in as
// that user.
func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/ws/:userID", authMiddleware, func(c *fiber.Ctx) error {
		if id, _ := c.Locals("user_id").(string); id != c.Params("userID") {
			return fiber.NewError(fiber.StatusForbidden, "cannot watch another user's events")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("userID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg := <-client.Send:
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
}
