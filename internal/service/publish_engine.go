package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vallonadams18-dot/boothflow/internal/metrics"
	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
)

const (
	maxRetryCount  = 5
	baseRetryDelay = time.Minute
	maxRetryDelay  = 30 * time.Minute
)

// Publish attempt triggers. Scheduled triggers come from the queue and
// the due scan and must respect the post's timing fields; manual
// triggers are explicit operator actions (Publish Now, retry) and skip
// the due check.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// PublishEngine drives a post through the publish lifecycle. It is the
// only writer of status, external_post_id, published_at, error_message,
// retry_count and next_retry_at once a post exists (operator commands in
// PostService aside). Attempts are serialized per post id.
type PublishEngine interface {
	Attempt(ctx context.Context, postID, trigger string) error
}

type publishEngine struct {
	pr      repository.PostRepository
	ar      repository.PublishAttemptRepository
	pub     PublisherService
	metrics *metrics.Collector
	now     func() time.Time

	mu      sync.Mutex
	perPost map[string]*sync.Mutex
}

func NewPublishEngine(pr repository.PostRepository, ar repository.PublishAttemptRepository, pub PublisherService, mc *metrics.Collector) PublishEngine {
	return &publishEngine{
		pr:      pr,
		ar:      ar,
		pub:     pub,
		metrics: mc,
		now:     time.Now,
		perPost: make(map[string]*sync.Mutex),
	}
}

func (e *publishEngine) lockFor(postID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.perPost[postID]
	if !ok {
		l = &sync.Mutex{}
		e.perPost[postID] = l
	}
	return l
}

// Attempt runs one publish attempt. The per-id lock plus the status
// re-read after acquiring it guarantee at most one in-flight attempt per
// post; a concurrent caller blocks, then finds the post no longer
// publishable and returns a ValidationError instead of publishing twice.
// Scheduled triggers additionally re-verify the post is due, so a task
// enqueued before the operator postponed the post fires harmlessly and
// the due scan picks the post up again at the new time.
func (e *publishEngine) Attempt(ctx context.Context, postID, trigger string) error {
	lock := e.lockFor(postID)
	lock.Lock()
	defer lock.Unlock()

	post, err := e.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return &models.NotFoundError{Entity: "post", ID: postID}
	}
	if !post.Publishable() {
		return models.NewValidationError("post cannot be published from status %s", post.Status)
	}
	if trigger != TriggerManual {
		if post.Status == models.PostStatusPending && post.ScheduledFor.After(e.now()) {
			return models.NewValidationError("post is not due until %s", post.ScheduledFor.Format(time.RFC3339))
		}
		if post.Status == models.PostStatusRetrying && post.NextRetryAt != nil && post.NextRetryAt.After(e.now()) {
			return models.NewValidationError("retry backoff has not elapsed")
		}
	}

	post.Status = models.PostStatusPublishing
	if err := e.pr.Update(ctx, post); err != nil {
		return err
	}

	started := e.now()
	externalID, pubErr := e.pub.Publish(ctx, post.ImageURL, composeCaption(post))
	elapsed := e.now().Sub(started)

	if pubErr != nil {
		e.recordFailure(ctx, post, pubErr, elapsed)
		return pubErr
	}

	now := e.now()
	post.Status = models.PostStatusPublished
	post.ExternalPostID = externalID
	post.PublishedAt = &now
	post.ErrorMessage = ""
	post.NextRetryAt = nil

	if err := e.pr.Update(ctx, post); err != nil {
		return err
	}

	e.recordAttempt(ctx, post.ID, models.AttemptOutcomeSuccess, "")
	if e.metrics != nil {
		e.metrics.RecordPublish("success", elapsed)
	}
	slog.Info("post published", "post_id", post.ID, "external_post_id", externalID)
	return nil
}

// recordFailure applies the retry policy: every failed attempt enters
// retrying with exponential backoff while retries remain, and becomes
// terminally failed once the limit is reached.
func (e *publishEngine) recordFailure(ctx context.Context, post *models.ScheduledPost, pubErr error, elapsed time.Duration) {
	post.RetryCount++
	post.ErrorMessage = pubErr.Error()

	if post.RetryCount >= maxRetryCount {
		post.Status = models.PostStatusFailed
		post.NextRetryAt = nil
		slog.Warn("post failed terminally", "post_id", post.ID, "retry_count", post.RetryCount, "error", pubErr.Error())
	} else {
		next := e.now().Add(backoffDelay(post.RetryCount))
		post.Status = models.PostStatusRetrying
		post.NextRetryAt = &next
		slog.Info("post publish failed, retry scheduled", "post_id", post.ID, "retry_count", post.RetryCount, "next_retry_at", next)
	}

	if err := e.pr.Update(ctx, post); err != nil {
		slog.Error("failed to persist publish failure", "post_id", post.ID, "error", err.Error())
	}

	e.recordAttempt(ctx, post.ID, models.AttemptOutcomeFailure, pubErr.Error())
	if e.metrics != nil {
		e.metrics.RecordPublish("failure", elapsed)
	}
}

func (e *publishEngine) recordAttempt(ctx context.Context, postID, outcome, errorMessage string) {
	attempt := &models.PublishAttempt{
		PostID:       postID,
		Outcome:      outcome,
		ErrorMessage: errorMessage,
	}
	if _, err := e.ar.Create(ctx, attempt); err != nil {
		slog.Error("failed to record publish attempt", "post_id", postID, "error", err.Error())
	}
}

func backoffDelay(retryCount int) time.Duration {
	d := baseRetryDelay << (retryCount - 1)
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

func composeCaption(post *models.ScheduledPost) string {
	if post.Hashtags == "" {
		return post.Caption
	}
	return post.Caption + "\n\n" + post.Hashtags
}
