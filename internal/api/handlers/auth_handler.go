package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/pkg/utils"
)

const sessionDuration = 24 * time.Hour

type AuthHandler struct {
	cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	if h.cfg.OperatorPassword == "" ||
		subtle.ConstantTimeCompare([]byte(body.Password), []byte(h.cfg.OperatorPassword)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "operator", sessionDuration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   int(sessionDuration.Seconds()),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged in",
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}
