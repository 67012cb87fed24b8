package app

import (
	"time"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MessageHandler exposes message history and owner guarded edit and delete
// over HTTP. Edits and deletes are also announced to the room.
type MessageHandler struct {
	Usecase MessageUseCase
	Hub     *Hub
}

// EditMessageReq is the PATCH /messages/:id body.
type EditMessageReq struct {
	Content string `json:"content"`
}

// List godoc GET /messages
// Query limit caps the page size, cursor is the created_at of the oldest
// message of the previous page.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageLimit)
	var before *time.Time
	if cursor := c.Query("cursor"); cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid cursor"})
		}
		before = &t
	}
	page, err := h.Usecase.ListMessages(c.Context(), limit, before)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load messages"})
	}
	return c.JSON(page)
}

// Edit godoc PATCH /messages/:id
func (h *MessageHandler) Edit(c *fiber.Ctx) error {
	memberID, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || memberID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	var req EditMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	msg, err := h.Usecase.Edit(c.Context(), c.Params("id"), memberID, req.Content)
	if err != nil {
		return messageError(c, err)
	}
	h.Hub.Broadcast(domain.EventMessageEdited, domain.MessageEditedPayload{
		MessageID: msg.ID,
		Content:   msg.Content,
		UpdatedAt: *msg.UpdatedAt,
	}, nil)
	return c.JSON(msg)
}

// Delete godoc DELETE /messages/:id
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	memberID, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || memberID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	msg, err := h.Usecase.SoftDelete(c.Context(), c.Params("id"), memberID)
	if err != nil {
		return messageError(c, err)
	}
	h.Hub.Broadcast(domain.EventMessageDeleted, domain.MessageDeletedPayload{MessageID: msg.ID}, nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func messageError(c *fiber.Ctx, err error) error {
	switch err {
	case domain.ErrMessageNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
	case domain.ErrNotMessageOwner:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not the message owner"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}
