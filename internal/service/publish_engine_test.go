package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

func newTestEngine(repo *fakePostRepo, attempts *fakeAttemptRepo, pub *fakePublisher) PublishEngine {
	return NewPublishEngine(repo, attempts, pub, nil)
}

func pendingPost(id string) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:           id,
		ImageURL:     "https://cdn.example.com/scheduled/" + id,
		Caption:      "caption",
		ScheduledFor: time.Now().Add(-time.Minute),
		Status:       models.PostStatusPending,
	}
}

func TestPublishSuccess(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	attempts := &fakeAttemptRepo{}
	engine := newTestEngine(repo, attempts, &fakePublisher{})

	if err := engine.Attempt(context.Background(), "p1", TriggerScheduled); err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}

	post := repo.get("p1")
	if post.Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", post.Status)
	}
	if post.ExternalPostID == "" {
		t.Error("external post id should be set")
	}
	if post.PublishedAt == nil {
		t.Error("published time should be set")
	}
	if post.ErrorMessage != "" {
		t.Errorf("error message = %q, want empty", post.ErrorMessage)
	}
	if post.NextRetryAt != nil {
		t.Error("next retry time should be cleared")
	}

	recorded, _ := attempts.ListByPostID(context.Background(), "p1")
	if len(recorded) != 1 || recorded[0].Outcome != models.AttemptOutcomeSuccess {
		t.Errorf("attempt log = %+v, want one success", recorded)
	}
}

// publishedAt and externalPostId must be both present or both absent,
// across every lifecycle step.
func TestPublishedFieldsInvariant(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	engine := newTestEngine(repo, &fakeAttemptRepo{}, &fakePublisher{failFirst: 1})

	engine.Attempt(context.Background(), "p1", TriggerScheduled)
	post := repo.get("p1")
	if (post.PublishedAt != nil) != (post.ExternalPostID != "") {
		t.Fatalf("invariant broken after failure: publishedAt=%v externalPostID=%q", post.PublishedAt, post.ExternalPostID)
	}

	engine.Attempt(context.Background(), "p1", TriggerManual)
	post = repo.get("p1")
	if post.PublishedAt == nil || post.ExternalPostID == "" {
		t.Fatalf("invariant broken after success: publishedAt=%v externalPostID=%q", post.PublishedAt, post.ExternalPostID)
	}
}

func TestPublishFailureEntersRetrying(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	attempts := &fakeAttemptRepo{}
	engine := newTestEngine(repo, attempts, &fakePublisher{failFirst: 1})

	err := engine.Attempt(context.Background(), "p1", TriggerScheduled)
	if err == nil {
		t.Fatal("Attempt should propagate the publish error")
	}

	post := repo.get("p1")
	if post.Status != models.PostStatusRetrying {
		t.Errorf("status = %q, want retrying", post.Status)
	}
	if post.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", post.RetryCount)
	}
	if post.NextRetryAt == nil {
		t.Error("next retry time should be set")
	}
	if post.ErrorMessage == "" {
		t.Error("error message should be recorded")
	}

	recorded, _ := attempts.ListByPostID(context.Background(), "p1")
	if len(recorded) != 1 || recorded[0].Outcome != models.AttemptOutcomeFailure {
		t.Errorf("attempt log = %+v, want one failure", recorded)
	}
}

// Five consecutive failures exhaust the retry budget: the post lands in
// terminal failed with no further automatic retry scheduled.
func TestRetryExhaustion(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	engine := newTestEngine(repo, &fakeAttemptRepo{}, &fakePublisher{failFirst: 100})

	for i := 0; i < 5; i++ {
		if err := engine.Attempt(context.Background(), "p1", TriggerManual); err == nil {
			t.Fatalf("attempt %d should have failed", i+1)
		}
	}

	post := repo.get("p1")
	if post.Status != models.PostStatusFailed {
		t.Errorf("status = %q, want failed", post.Status)
	}
	if post.RetryCount != 5 {
		t.Errorf("retry count = %d, want 5", post.RetryCount)
	}
	if post.NextRetryAt != nil {
		t.Error("no further retry should be scheduled")
	}

	// The sixth request is rejected without touching the publisher.
	err := engine.Attempt(context.Background(), "p1", TriggerManual)
	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if got := repo.get("p1").RetryCount; got != 5 {
		t.Errorf("retry count after rejected attempt = %d, want 5", got)
	}
}

func TestRetryCountMonotonic(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	engine := newTestEngine(repo, &fakeAttemptRepo{}, &fakePublisher{failFirst: 100})

	last := 0
	for i := 0; i < 5; i++ {
		engine.Attempt(context.Background(), "p1", TriggerManual)
		post := repo.get("p1")
		if post.RetryCount < last {
			t.Fatalf("retry count decreased from %d to %d", last, post.RetryCount)
		}
		if post.RetryCount > maxRetryCount {
			t.Fatalf("retry count %d exceeds maximum %d", post.RetryCount, maxRetryCount)
		}
		last = post.RetryCount
	}
}

// A scheduled trigger on a post that is not yet due must not publish.
// Stale queue tasks survive a postponement; the delivery time check is
// what keeps them from firing early.
func TestScheduledAttemptBeforeDueTime(t *testing.T) {
	repo := newFakePostRepo()
	post := pendingPost("p1")
	post.ScheduledFor = time.Now().Add(24 * time.Hour)
	repo.add(post)
	pub := &fakePublisher{}
	engine := newTestEngine(repo, &fakeAttemptRepo{}, pub)

	err := engine.Attempt(context.Background(), "p1", TriggerScheduled)

	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if pub.calls != 0 {
		t.Error("publisher should not have been called")
	}
	if got := repo.get("p1").Status; got != models.PostStatusPending {
		t.Errorf("status = %q, want pending", got)
	}
}

// A scheduled trigger during the retry backoff window is likewise
// dropped; only the due scan after next_retry_at may fire it.
func TestScheduledAttemptDuringBackoff(t *testing.T) {
	repo := newFakePostRepo()
	post := pendingPost("p1")
	post.Status = models.PostStatusRetrying
	post.RetryCount = 2
	next := time.Now().Add(10 * time.Minute)
	post.NextRetryAt = &next
	repo.add(post)
	pub := &fakePublisher{}
	engine := newTestEngine(repo, &fakeAttemptRepo{}, pub)

	err := engine.Attempt(context.Background(), "p1", TriggerScheduled)

	var validation *models.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if pub.calls != 0 {
		t.Error("publisher should not have been called")
	}
	if got := repo.get("p1").RetryCount; got != 2 {
		t.Errorf("retry count = %d, want unchanged 2", got)
	}
}

// A manual trigger is the operator overriding the schedule, so the due
// time check does not apply.
func TestManualAttemptIgnoresDueTime(t *testing.T) {
	repo := newFakePostRepo()
	post := pendingPost("p1")
	post.ScheduledFor = time.Now().Add(24 * time.Hour)
	repo.add(post)
	pub := &fakePublisher{}
	engine := newTestEngine(repo, &fakeAttemptRepo{}, pub)

	if err := engine.Attempt(context.Background(), "p1", TriggerManual); err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if got := repo.get("p1").Status; got != models.PostStatusPublished {
		t.Errorf("status = %q, want published", got)
	}
}

func TestAttemptNotFound(t *testing.T) {
	engine := newTestEngine(newFakePostRepo(), &fakeAttemptRepo{}, &fakePublisher{})

	err := engine.Attempt(context.Background(), "missing", TriggerScheduled)

	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestAttemptFromTerminalStatus(t *testing.T) {
	for _, status := range []string{models.PostStatusPublished, models.PostStatusCancelled, models.PostStatusFailed} {
		t.Run(status, func(t *testing.T) {
			repo := newFakePostRepo()
			post := pendingPost("p1")
			post.Status = status
			repo.add(post)
			pub := &fakePublisher{}
			engine := newTestEngine(repo, &fakeAttemptRepo{}, pub)

			err := engine.Attempt(context.Background(), "p1", TriggerScheduled)

			var validation *models.ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if pub.calls != 0 {
				t.Error("publisher should not have been called")
			}
		})
	}
}

// Two concurrent requests for the same post must not overlap on the
// external call; the loser of the lock race finds the post already
// published and backs off.
func TestConcurrentAttemptsSerialized(t *testing.T) {
	repo := newFakePostRepo()
	repo.add(pendingPost("p1"))
	pub := &fakePublisher{callDuration: 20 * time.Millisecond}
	engine := newTestEngine(repo, &fakeAttemptRepo{}, pub)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Attempt(context.Background(), "p1", TriggerScheduled)
		}()
	}
	wg.Wait()

	if pub.maxInFlight > 1 {
		t.Errorf("max in-flight publish calls = %d, want 1", pub.maxInFlight)
	}
	if pub.calls != 1 {
		t.Errorf("publisher called %d times, want 1", pub.calls)
	}
	if got := repo.get("p1").Status; got != models.PostStatusPublished {
		t.Errorf("status = %q, want published", got)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{10, maxRetryDelay},
	}

	for _, tt := range tests {
		if got := backoffDelay(tt.retryCount); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}

func TestComposeCaption(t *testing.T) {
	post := &models.ScheduledPost{Caption: "hello"}
	if got := composeCaption(post); got != "hello" {
		t.Errorf("composeCaption = %q", got)
	}

	post.Hashtags = "#a #b"
	if got := composeCaption(post); got != "hello\n\n#a #b" {
		t.Errorf("composeCaption = %q", got)
	}
}
