package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vallonadams18-dot/boothflow/internal/service"
)

type PlatformHandler struct {
	pub service.PublisherService
}

func NewPlatformHandler(pub service.PublisherService) *PlatformHandler {
	return &PlatformHandler{pub: pub}
}

func (h *PlatformHandler) ConnectionStatus(c *fiber.Ctx) error {
	status, err := h.pub.ConnectionStatus(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}
