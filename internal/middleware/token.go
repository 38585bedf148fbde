package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// TokenAuth rejects requests that do not carry the configured API token.
// The token is accepted as "Authorization: Bearer <token>" or "X-API-Key".
func TokenAuth(token string) fiber.Handler {
	want := sha256.Sum256([]byte(token))

	return func(c fiber.Ctx) error {
		key := extractToken(c)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API token",
			})
		}

		got := sha256.Sum256([]byte(key))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API token",
			})
		}
		return c.Next()
	}
}

func extractToken(c fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Get("X-API-Key")
}
