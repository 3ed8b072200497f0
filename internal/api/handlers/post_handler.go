package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/vallonadams18-dot/boothflow/internal/queue"
	"github.com/vallonadams18-dot/boothflow/internal/service"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	post, err := h.s.Create(c.Context(), &pc)
	if err != nil {
		return writeError(c, err)
	}

	delay := time.Until(post.ScheduledFor)
	if delay < 0 {
		delay = 0
	}

	payload := queue.PublishPostPayload{PostID: post.ID, Trigger: service.TriggerScheduled}
	if err := queue.EnqueuePublish(h.AsynqClient, payload, delay); err != nil {
		slog.Warn("failed to enqueue publish task", "post_id", post.ID, "error", err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	postID := c.Query("id")

	if postID != "" {
		post, err := h.s.Get(c.Context(), postID)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	postID := c.Query("id")

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	post, err := h.s.Update(c.Context(), postID, &pu)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID := c.Query("id")

	if err := h.s.Remove(c.Context(), postID); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	postID := c.Query("id")

	if err := h.s.Cancel(c.Context(), postID); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// RetryPost resets a failed post and immediately re-attempts publishing.
func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	postID := c.Query("id")

	post, err := h.s.ResetForRetry(c.Context(), postID)
	if err != nil {
		return writeError(c, err)
	}

	payload := queue.PublishPostPayload{PostID: post.ID, Trigger: service.TriggerManual}
	if err := queue.EnqueuePublish(h.AsynqClient, payload, 0); err != nil {
		slog.Warn("failed to enqueue publish task", "post_id", post.ID, "error", err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// PostHistory returns the publish attempt audit trail for a post.
func (h *PostHandler) PostHistory(c *fiber.Ctx) error {
	postID := c.Query("id")

	attempts, err := h.s.History(c.Context(), postID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(attempts)
}

// PublishNow enqueues an immediate attempt regardless of the scheduled
// time.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	postID := c.Query("id")

	post, err := h.s.Get(c.Context(), postID)
	if err != nil {
		return writeError(c, err)
	}

	payload := queue.PublishPostPayload{PostID: post.ID, Trigger: service.TriggerManual}
	if err := queue.EnqueuePublish(h.AsynqClient, payload, 0); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling publish",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Publish requested",
	})
}
