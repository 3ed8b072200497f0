package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	var validation *models.ValidationError
	var notFound *models.NotFoundError
	var external *models.ExternalServiceError
	var insufficient *models.InsufficientAssetsError

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Error()})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     insufficient.Error(),
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.Is(err, models.ErrPublishInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &external):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": external.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
