package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vallonadams18-dot/boothflow/internal/metrics"
	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
)

// AutoScheduleService fills the weekly content calendar from the unused
// part of the asset library in one operation. The asset-count check is
// all or nothing; after it passes, individual slot problems degrade
// (fallback caption) or skip the slot (staging failure) but never abort
// the run.
type AutoScheduleService interface {
	ScheduleWeek(ctx context.Context) (int, error)
}

type autoScheduleService struct {
	pr       repository.PostRepository
	ma       repository.MediaAssetRepository
	captions CaptionService
	stager   AssetStager
	calendar []models.ContentCalendarSlot
	metrics  *metrics.Collector
	now      func() time.Time
}

func NewAutoScheduleService(
	pr repository.PostRepository,
	ma repository.MediaAssetRepository,
	captions CaptionService,
	stager AssetStager,
	mc *metrics.Collector) AutoScheduleService {
	return &autoScheduleService{
		pr:       pr,
		ma:       ma,
		captions: captions,
		stager:   stager,
		calendar: models.DefaultWeeklyCalendar(),
		metrics:  mc,
		now:      time.Now,
	}
}

func (s *autoScheduleService) ScheduleWeek(ctx context.Context) (int, error) {
	unused, err := s.ma.ListUnused(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing unused assets: %w", err)
	}
	if len(unused) < len(s.calendar) {
		return 0, &models.InsufficientAssetsError{Available: len(unused), Required: len(s.calendar)}
	}

	created := 0
	for i, slot := range s.calendar {
		asset := unused[i]
		when := slot.NextOccurrence(s.now())

		// A staging failure means there is nothing safe to publish for
		// this slot; skip it and keep going.
		stagedURL, err := s.stager.Stage(ctx, asset)
		if err != nil {
			slog.Warn("skipping slot, asset staging failed", "content_type", slot.ContentType, "asset_id", asset.ID, "error", err.Error())
			continue
		}

		caption, hashtags, captionSource := s.captionFor(ctx, asset, slot)

		id, err := gonanoid.New()
		if err != nil {
			return created, err
		}

		post := &models.ScheduledPost{
			ID:            id,
			ImageURL:      stagedURL,
			AssetID:       asset.ID,
			Caption:       caption,
			Hashtags:      hashtags,
			ScheduledFor:  when,
			Status:        models.PostStatusPending,
			CaptionSource: captionSource,
			CreatedAt:     s.now(),
		}

		if _, err := s.pr.Create(ctx, nil, post); err != nil {
			slog.Error("skipping slot, post creation failed", "content_type", slot.ContentType, "error", err.Error())
			continue
		}

		created++
		slog.Info("slot scheduled", "content_type", slot.ContentType, "post_id", id, "scheduled_for", when, "caption_source", captionSource)
	}

	if s.metrics != nil {
		s.metrics.RecordAutoScheduled(created)
	}
	return created, nil
}

// captionFor asks the caption service for slot-appropriate copy and
// falls back to a deterministic template when the call fails. The
// returned source marker is persisted so the operator can tell a
// fallback was used.
func (s *autoScheduleService) captionFor(ctx context.Context, asset *models.MediaAsset, slot models.ContentCalendarSlot) (caption, hashtags, source string) {
	description := assetDescription(asset, slot)

	result, err := s.captions.Generate(ctx, description, slot.ToneHint)
	if err != nil {
		slog.Warn("caption generation failed, using fallback", "asset_id", asset.ID, "error", err.Error())
		return fallbackCaption(slot), fallbackHashtags, models.CaptionSourceFallback
	}

	return result.Caption, result.Hashtags, models.CaptionSourceGenerated
}

func assetDescription(asset *models.MediaAsset, slot models.ContentCalendarSlot) string {
	if len(asset.Tags) > 0 {
		return fmt.Sprintf("%s photo tagged: %s", slot.ContentType, strings.Join(asset.Tags, ", "))
	}
	return fmt.Sprintf("%s photo from our booth library", slot.ContentType)
}

const fallbackHashtags = "#photobooth #eventfun #partytime"

func fallbackCaption(slot models.ContentCalendarSlot) string {
	return fmt.Sprintf("Another %s moment from the booth! Book us for your next event.", slot.ContentType)
}
