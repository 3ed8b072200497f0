package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	config "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware validates the operator session cookie. The dashboard is
// a single-operator tool; there is no per-user authorization beyond it.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing session cookie",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1,
			})

			slog.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
