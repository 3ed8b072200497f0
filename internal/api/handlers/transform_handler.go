package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vallonadams18-dot/boothflow/internal/service"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

type TransformHandler struct {
	batch   service.BatchTransformService
	compare service.CompareService
}

func NewTransformHandler(batch service.BatchTransformService, compare service.CompareService) *TransformHandler {
	return &TransformHandler{batch: batch, compare: compare}
}

func (h *TransformHandler) RunBatch(c *fiber.Ctx) error {
	var req transfer.BatchTransformRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	summary, err := h.batch.Run(c.Context(), &req)
	if err != nil && summary == nil {
		return writeError(c, err)
	}

	// A cancelled batch still reports the results collected so far.
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *TransformHandler) BatchProgress(c *fiber.Ctx) error {
	jobID := c.Params("id")

	progress, err := h.batch.Progress(c.Context(), jobID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(progress)
}

func (h *TransformHandler) Compare(c *fiber.Ctx) error {
	var req struct {
		AssetID string `json:"asset_id"`
		Style   string `json:"style"`
		Prompt  string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	result, err := h.compare.Compare(c.Context(), req.AssetID, req.Style, req.Prompt)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *TransformHandler) Adopt(c *fiber.Ctx) error {
	var req transfer.AdoptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	assetID, err := h.compare.Adopt(c.Context(), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"asset_id": assetID,
	})
}
