// middleware/auth.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserContextMiddleware extracts the user identity set by Gateway and
// rejects requests that carry none.
func UserContextMiddleware(log *logrus.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.WithField("path", c.Path()).Warn("❌ [USER_CTX] X-User-ID required but missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		log.WithFields(logrus.Fields{"user_id": userID, "path": c.Path()}).Debug("👤 [USER_CTX] user context attached")
		return c.Next()
	}
}
