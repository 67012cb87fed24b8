package app

import (
	"realtime_chat_service/internal/chat/repository"

	"github.com/gofiber/fiber/v2"
)

// PresenceHandler exposes the online users list.
type PresenceHandler struct {
	Presence repository.PresenceStore
}

// ListOnline godoc GET /users/online
// Users appear in join order, one entry per user however many connections
// they hold.
func (h *PresenceHandler) ListOnline(c *fiber.Ctx) error {
	users, err := h.Presence.ListOnline(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load online users"})
	}
	return c.JSON(fiber.Map{"users": users})
}
