package app

import (
	"realtime_chat_service/internal/member/domain"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler serves the auth REST endpoints.
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler create MemberHandler
func NewMemberHandler(uc MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: uc}
}

// RegisterReq register request body
type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginReq login request body
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MemberRes member info payload
type MemberRes struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles POST /auth/register
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username, email and password are required"})
	}

	member, err := h.Usecase.Register(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		logger.Log.Error("Register Err", zap.String("email", req.Email), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(MemberRes{
		ID:       member.MemberID,
		Username: member.Username,
		Email:    member.Email,
	})
}

// Login handles POST /auth/login
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	tokenStr, err := h.Usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Error("Login Err", zap.String("email", req.Email), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"access_token": tokenStr, "token_type": "bearer"})
}

// Me handles GET /auth/me
func (h *MemberHandler) Me(c *fiber.Ctx) error {
	memberID, _ := c.Locals(middlewares.TokenMemberID).(string)
	if memberID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	member, err := h.Usecase.FindMember(c.Context(), &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "user not found"})
	}

	return c.JSON(MemberRes{
		ID:       member.MemberID,
		Username: member.Username,
		Email:    member.Email,
	})
}
