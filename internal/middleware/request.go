package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/logger"
)

// RequestLogger stores a logger tagged with the request ID in the user
// context. It must run after the requestid middleware.
func RequestLogger(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("requestid").(string)
		l := base.With(zap.String("request_id", reqID))
		c.SetUserContext(logger.WithContext(c.UserContext(), l))
		return c.Next()
	}
}
