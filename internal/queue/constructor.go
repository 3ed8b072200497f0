package queue

import (
	"github.com/vallonadams18-dot/boothflow/internal/service"
)

type Queue struct {
	engine service.PublishEngine
}

func NewQueue(engine service.PublishEngine) *Queue {
	return &Queue{engine: engine}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID  string `json:"post_id"`
	Trigger string `json:"trigger"` // service.TriggerScheduled or service.TriggerManual
}
