package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/service"
)

type ScheduleHandler struct {
	s service.AutoScheduleService
}

func NewScheduleHandler(s service.AutoScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: s}
}

// AutoSchedule fills the weekly calendar from unused library assets.
func (h *ScheduleHandler) AutoSchedule(c *fiber.Ctx) error {
	created, err := h.s.ScheduleWeek(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"created": created,
	})
}

func (h *ScheduleHandler) Calendar(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.DefaultWeeklyCalendar())
}
