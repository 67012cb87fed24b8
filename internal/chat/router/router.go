package router

import (
	"realtime_chat_service/internal/chat/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the chat room: the websocket endpoint, message
// history with edit and delete, and the online users list.
func RegisterRoutes(r *fiber.App, ctl *app.SessionController, msg *app.MessageHandler, presence *app.PresenceHandler) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	// the token middleware runs before the upgrade so unauthenticated
	// clients are rejected without a websocket handshake
	r.Get("/ws", middlewares.JWTMiddleware(), websocket.New(func(conn *websocket.Conn) {
		memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
		ctl.Handle(conn, memberID)
	}))

	r.Get("/messages", msg.List)
	r.Patch("/messages/:id", middlewares.JWTMiddleware(), msg.Edit)
	r.Delete("/messages/:id", middlewares.JWTMiddleware(), msg.Delete)

	r.Get("/users/online", presence.ListOnline)
}
