package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vallonadams18-dot/boothflow/internal/service"
)

type AssetHandler struct {
	s service.AssetService
}

func NewAssetHandler(s service.AssetService) *AssetHandler {
	return &AssetHandler{s: s}
}

func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	var tags []string
	if raw := c.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	asset, err := h.s.Upload(c.Context(), file, tags)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(asset)
}

func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *AssetHandler) RemoveAsset(c *fiber.Ctx) error {
	assetID := c.Query("id")

	if err := h.s.Remove(c.Context(), assetID); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
