package router

import (
	"realtime_chat_service/internal/member/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the auth endpoints.
func RegisterRoutes(r *fiber.App, h *app.MemberHandler) {
	auth := r.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middlewares.JWTMiddleware(), h.Me)
}
