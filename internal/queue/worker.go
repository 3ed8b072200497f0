package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/service"
)

// HandlePublishPostTask runs one publish attempt for the payload's post.
// Retry bookkeeping lives in the publish engine, not in asynq: the
// handler swallows attempt errors so asynq never layers its own retries
// on top of the engine's backoff schedule. The due scan picks the post
// up again once next_retry_at passes.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	trigger := payload.Trigger
	if trigger == "" {
		trigger = service.TriggerScheduled
	}

	if err := q.engine.Attempt(ctx, payload.PostID, trigger); err != nil {
		var notFound *models.NotFoundError
		var validation *models.ValidationError
		switch {
		case errors.As(err, &notFound):
			slog.Info("dropping publish task, post gone", "post_id", payload.PostID)
		case errors.As(err, &validation):
			// Post moved to a non-publishable status (cancelled,
			// already published) between enqueue and dispatch.
			slog.Info("dropping publish task", "post_id", payload.PostID, "reason", err.Error())
		default:
			slog.Warn("publish attempt failed", "post_id", payload.PostID, "error", err.Error())
		}
	}

	return nil
}
