package api

import (
	"strings"

	"github.com/example/worklog-dashboard/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// CallerContextKey is the key used to store caller claims in the Fiber context.
	CallerContextKey = "caller"
)

// AuthMiddleware creates a middleware that resolves bearer tokens to caller
// claims. The tokens themselves come from the external authentication
// service; this middleware only validates and extracts.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return rejectAuth(c, "Authorization header is required")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return rejectAuth(c, "Invalid authorization header format. Use: Bearer <token>")
		}
		if token == "" {
			return rejectAuth(c, "Token is required")
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil {
			return rejectAuth(c, "Invalid or expired token")
		}

		c.Locals(CallerContextKey, claims)
		return c.Next()
	}
}

func rejectAuth(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
