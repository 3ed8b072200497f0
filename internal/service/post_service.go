package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

const scheduledForLayout = "2006-01-02T15:04"

// PostService owns the scheduled-post collection outside of publish
// attempts: creation, edits, and the explicit operator commands
// (cancel, delete, reset-for-retry). Publish-related field changes
// belong to the publish engine.
type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.ScheduledPost, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	Get(ctx context.Context, id string) (*models.ScheduledPost, error)
	Update(ctx context.Context, id string, pu *transfer.PostUpdate) (*models.ScheduledPost, error)
	Remove(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	ResetForRetry(ctx context.Context, id string) (*models.ScheduledPost, error)
	History(ctx context.Context, id string) ([]*models.PublishAttempt, error)
}

type postService struct {
	pr  repository.PostRepository
	ar  repository.PublishAttemptRepository
	now func() time.Time
}

func NewPostService(pr repository.PostRepository, ar repository.PublishAttemptRepository) PostService {
	return &postService{pr: pr, ar: ar, now: time.Now}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.ScheduledPost, error) {
	if pc == nil {
		return nil, models.NewValidationError("post creation data is nil")
	}
	if pc.ImageURL == "" {
		return nil, models.NewValidationError("image_url cannot be empty")
	}
	if pc.Caption == "" {
		return nil, models.NewValidationError("caption cannot be empty")
	}
	if pc.ScheduledFor == "" {
		return nil, models.NewValidationError("scheduled_for cannot be empty")
	}

	scheduledFor, err := time.ParseInLocation(scheduledForLayout, pc.ScheduledFor, time.Local)
	if err != nil {
		return nil, models.NewValidationError("invalid scheduled_for format: %v", err)
	}
	if !scheduledFor.After(s.now()) {
		return nil, models.NewValidationError("scheduled_for must be in the future")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	post := &models.ScheduledPost{
		ID:            id,
		ImageURL:      pc.ImageURL,
		AssetID:       pc.AssetID,
		Caption:       pc.Caption,
		Hashtags:      pc.Hashtags,
		ScheduledFor:  scheduledFor,
		Status:        models.PostStatusPending,
		CaptionSource: models.CaptionSourceManual,
		CreatedAt:     s.now(),
	}

	if _, err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return post, nil
}

func (s *postService) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	posts, err := s.pr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Get(ctx context.Context, id string) (*models.ScheduledPost, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, &models.NotFoundError{Entity: "post", ID: id}
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, id string, pu *transfer.PostUpdate) (*models.ScheduledPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublishing {
		return nil, models.ErrPublishInProgress
	}

	if pu.Caption != nil {
		if *pu.Caption == "" {
			return nil, models.NewValidationError("caption cannot be empty")
		}
		post.Caption = *pu.Caption
	}
	if pu.Hashtags != nil {
		post.Hashtags = *pu.Hashtags
	}
	if pu.ImageURL != nil {
		if *pu.ImageURL == "" {
			return nil, models.NewValidationError("image_url cannot be empty")
		}
		post.ImageURL = *pu.ImageURL
	}
	if pu.ScheduledFor != nil {
		scheduledFor, err := time.ParseInLocation(scheduledForLayout, *pu.ScheduledFor, time.Local)
		if err != nil {
			return nil, models.NewValidationError("invalid scheduled_for format: %v", err)
		}
		if !scheduledFor.After(s.now()) {
			return nil, models.NewValidationError("scheduled_for must be in the future")
		}
		post.ScheduledFor = scheduledFor
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}

	return post, nil
}

func (s *postService) Remove(ctx context.Context, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPublishing {
		return models.ErrPublishInProgress
	}

	if err := s.pr.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}

func (s *postService) Cancel(ctx context.Context, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !post.Cancellable() {
		return models.NewValidationError("post cannot be cancelled from status %s", post.Status)
	}

	post.Status = models.PostStatusCancelled
	post.NextRetryAt = nil

	if err := s.pr.Update(ctx, post); err != nil {
		return fmt.Errorf("error cancelling post: %w", err)
	}

	slog.Info("post cancelled", "post_id", id)
	return nil
}

// ResetForRetry is the operator's "retry" on a terminally failed post.
// It zeroes the retry bookkeeping and puts the post back to pending; the
// caller re-enqueues an immediate publish attempt.
func (s *postService) ResetForRetry(ctx context.Context, id string) (*models.ScheduledPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusFailed {
		return nil, models.NewValidationError("retry is only available for failed posts, status is %s", post.Status)
	}

	post.Status = models.PostStatusPending
	post.RetryCount = 0
	post.ErrorMessage = ""
	post.NextRetryAt = nil

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error resetting post: %w", err)
	}

	slog.Info("post reset for retry", "post_id", id)
	return post, nil
}

// History returns the post's publish attempt audit trail, oldest first.
func (s *postService) History(ctx context.Context, id string) ([]*models.PublishAttempt, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	attempts, err := s.ar.ListByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing publish attempts: %w", err)
	}
	return attempts, nil
}
