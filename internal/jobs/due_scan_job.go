package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vallonadams18-dot/boothflow/internal/queue"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
	"github.com/vallonadams18-dot/boothflow/internal/service"
)

// DueScanJob is the recurring scan that finds pending posts whose
// scheduled time has arrived and retrying posts whose backoff has
// elapsed, and hands each to the publish queue. Double dispatch is
// harmless: the engine re-checks the post's status under its per-id
// lock before attempting anything.
type DueScanJob struct {
	pr     repository.PostRepository
	client *asynq.Client
}

func NewDueScanJob(pr repository.PostRepository, client *asynq.Client) *DueScanJob {
	return &DueScanJob{pr: pr, client: client}
}

func (j *DueScanJob) Run() {
	ctx := context.Background()

	due, err := j.pr.ListDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range due {
		payload := queue.PublishPostPayload{PostID: post.ID, Trigger: service.TriggerScheduled}
		if err := queue.EnqueuePublish(j.client, payload, 0); err != nil {
			slog.Warn("failed to enqueue due post", "post_id", post.ID, "error", err.Error())
		}
	}

	if len(due) > 0 {
		slog.Info("due scan dispatched posts", "count", len(due))
	}
}
