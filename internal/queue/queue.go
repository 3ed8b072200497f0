package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueuePublish schedules a publish attempt for a post after delay.
// A zero delay dispatches as soon as a worker is free.
func EnqueuePublish(asynqClient *asynq.Client, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("publish task enqueued", "post_id", payload.PostID, "delay", delay)
	return nil
}
