package middlewares

import (
	"strings"

	t_token "realtime_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name, used by the websocket handshake
	QueryToken = "token"

	// CookieToken token in cookie name
	CookieToken = "auth_token"

	// TokenMemberID get member from token, set c.Locals name
	TokenMemberID = "MemberID"
	// TokenRole get role from token, set c.Locals name
	TokenRole = "role"
)

// JWTMiddleware validates the JWT from the Authorization header, the token
// query parameter, or the auth cookie, and stores the claims in Locals.
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		if authz := c.Get(fiber.HeaderAuthorization); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			tokenStr = authz[7:]
		}

		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := t_token.ParseJWTWrapper(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(TokenMemberID, claims.MemberID)
		c.Locals(TokenRole, claims.Role)

		return c.Next()
	}
}
