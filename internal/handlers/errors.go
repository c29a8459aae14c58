package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/logger"
	"alfredoptarigan/hirematch/internal/telemetry"
)

// ErrorReporter writes error responses. Server-side failures are logged and
// sent to Sentry; their detail is only exposed outside production.
type ErrorReporter struct {
	logger     *zap.Logger
	production bool
}

func NewErrorReporter(logger *zap.Logger, production bool) *ErrorReporter {
	return &ErrorReporter{logger: logger, production: production}
}

// ClientError responds with a short message and no logging.
func (r *ErrorReporter) ClientError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// ServerError responds with status and message, adding err's text as
// "details" in non-production environments.
func (r *ErrorReporter) ServerError(c *fiber.Ctx, status int, message string, err error) error {
	logger.FromContext(c.UserContext(), r.logger).Error(message,
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err))
	telemetry.CaptureException(err, map[string]string{
		"route":  c.Route().Path,
		"method": c.Method(),
	})

	body := fiber.Map{"error": message}
	if !r.production && err != nil {
		body["details"] = err.Error()
	}
	return c.Status(status).JSON(body)
}

// FiberErrorHandler is the app-level handler for errors returned instead
// of written by a handler.
func (r *ErrorReporter) FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
			"code":  fe.Code,
		})
	}
	return r.ServerError(c, fiber.StatusInternalServerError, "Internal server error", err)
}
