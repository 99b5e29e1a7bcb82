package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyMiddleware guards the API with a static key checked against
// the X-API-Key header. An empty configured key disables the check,
// which is the local development default.
func APIKeyMiddleware(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}
		got := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			return errUnauthorized(c, "missing or invalid API key")
		}
		return c.Next()
	}
}
