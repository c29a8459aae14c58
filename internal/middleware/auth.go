package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
	"alfredoptarigan/hirematch/internal/repositories"
	"alfredoptarigan/hirematch/internal/services"
)

const userLocalKey = "user"

// Authenticate verifies the bearer ID token and loads the caller's profile.
// The profile's role is the only source of authorization.
func Authenticate(verifier services.TokenVerifier, users repositories.UserRepository, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		identity, err := verifier.Verify(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			}
			logger.Error("token verification failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Authentication service unavailable",
			})
		}

		user, err := users.FindByID(c.UserContext(), identity.UID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "User profile not found",
				})
			}
			logger.Error("failed to load user profile", zap.String("uid", identity.UID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load user profile",
			})
		}

		SetUser(c, user)
		return c.Next()
	}
}

// RequireRole rejects callers whose profile role is not in roles.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromCtx(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

func SetUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userLocalKey, user)
}

// UserFromCtx returns the authenticated user, or nil.
func UserFromCtx(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
