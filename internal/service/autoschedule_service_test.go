package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

func newTestScheduler(pr *fakePostRepo, ma *fakeAssetRepo, captions CaptionService, stager AssetStager) *autoScheduleService {
	s := NewAutoScheduleService(pr, ma, captions, stager, nil).(*autoScheduleService)
	// Pin the clock to a Wednesday morning so slot times are stable.
	s.now = func() time.Time {
		return time.Date(2026, time.September, 2, 8, 30, 0, 0, time.UTC)
	}
	return s
}

func seedUnusedAssets(ma *fakeAssetRepo, n int) {
	for i := 0; i < n; i++ {
		ma.add(libraryAsset(string(rune('a'+i)) + "1"))
	}
}

func TestScheduleWeekFillsAllSlots(t *testing.T) {
	posts := newFakePostRepo()
	assets := newFakeAssetRepo()
	seedUnusedAssets(assets, 6)
	s := newTestScheduler(posts, assets, &fakeCaptionService{}, &fakeStager{})

	created, err := s.ScheduleWeek(context.Background())
	if err != nil {
		t.Fatalf("ScheduleWeek returned error: %v", err)
	}
	if created != 6 {
		t.Fatalf("created = %d, want 6", created)
	}

	scheduled, _ := posts.List(context.Background())
	if len(scheduled) != 6 {
		t.Fatalf("repo holds %d posts, want 6", len(scheduled))
	}

	now := s.now()
	slots := models.DefaultWeeklyCalendar()
	for i, post := range scheduled {
		if post.Status != models.PostStatusPending {
			t.Errorf("post %d status = %q, want pending", i, post.Status)
		}
		if post.CaptionSource != models.CaptionSourceGenerated {
			t.Errorf("post %d caption source = %q, want generated", i, post.CaptionSource)
		}
		if post.AssetID == "" {
			t.Errorf("post %d does not record its source asset", i)
		}
		if !post.ScheduledFor.After(now) {
			t.Errorf("post %d scheduled at %v, not after %v", i, post.ScheduledFor, now)
		}
		slot := slots[i]
		if post.ScheduledFor.Weekday() != slot.Weekday {
			t.Errorf("post %d weekday = %v, want %v", i, post.ScheduledFor.Weekday(), slot.Weekday)
		}
		if got := post.ScheduledFor.Format("15:04"); got != slot.TimeOfDay {
			t.Errorf("post %d time of day = %q, want %q", i, got, slot.TimeOfDay)
		}
	}
}

// Scheduling consumes assets. The posts reference a staged copy of the
// image, not the library object, so usage must be derived from the
// recorded asset id; a second run over the same library finds nothing
// left and aborts instead of double-booking the same photos.
func TestScheduleWeekConsumesAssets(t *testing.T) {
	posts := newFakePostRepo()
	assets := newFakeAssetRepo()
	assets.posts = posts
	seedUnusedAssets(assets, 6)
	s := newTestScheduler(posts, assets, &fakeCaptionService{}, &fakeStager{})

	created, err := s.ScheduleWeek(context.Background())
	if err != nil {
		t.Fatalf("first ScheduleWeek returned error: %v", err)
	}
	if created != 6 {
		t.Fatalf("created = %d, want 6", created)
	}

	unused, _ := assets.ListUnused(context.Background())
	if len(unused) != 0 {
		t.Fatalf("%d assets still reported unused after scheduling", len(unused))
	}

	_, err = s.ScheduleWeek(context.Background())
	var insufficient *models.InsufficientAssetsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("second run error = %v, want InsufficientAssetsError", err)
	}
	if posts.count() != 6 {
		t.Errorf("repo holds %d posts, want 6 (second run must not schedule)", posts.count())
	}
}

// Five unused assets cannot fill six slots: the run aborts up front and
// schedules nothing at all.
func TestScheduleWeekInsufficientAssets(t *testing.T) {
	posts := newFakePostRepo()
	assets := newFakeAssetRepo()
	seedUnusedAssets(assets, 5)
	s := newTestScheduler(posts, assets, &fakeCaptionService{}, &fakeStager{})

	_, err := s.ScheduleWeek(context.Background())

	var insufficient *models.InsufficientAssetsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientAssetsError", err)
	}
	if insufficient.Available != 5 || insufficient.Required != 6 {
		t.Errorf("error reports %d/%d, want 5/6", insufficient.Available, insufficient.Required)
	}
	if posts.count() != 0 {
		t.Errorf("repo holds %d posts, want 0", posts.count())
	}
}

func TestScheduleWeekCaptionFallback(t *testing.T) {
	posts := newFakePostRepo()
	assets := newFakeAssetRepo()
	seedUnusedAssets(assets, 6)
	captions := &fakeCaptionService{err: errors.New("model unavailable")}
	s := newTestScheduler(posts, assets, captions, &fakeStager{})

	created, err := s.ScheduleWeek(context.Background())
	if err != nil {
		t.Fatalf("ScheduleWeek returned error: %v", err)
	}
	if created != 6 {
		t.Fatalf("created = %d, want 6 (caption failures degrade, not abort)", created)
	}

	scheduled, _ := posts.List(context.Background())
	for i, post := range scheduled {
		if post.CaptionSource != models.CaptionSourceFallback {
			t.Errorf("post %d caption source = %q, want fallback", i, post.CaptionSource)
		}
		if post.Caption == "" || post.Hashtags == "" {
			t.Errorf("post %d fallback copy is empty: %+v", i, post)
		}
	}
}

func TestScheduleWeekStagingFailureSkipsSlot(t *testing.T) {
	posts := newFakePostRepo()
	assets := newFakeAssetRepo()
	seedUnusedAssets(assets, 6)
	unused, _ := assets.ListUnused(context.Background())
	stager := &fakeStager{failFor: map[string]bool{unused[2].ID: true}}
	s := newTestScheduler(posts, assets, &fakeCaptionService{}, stager)

	created, err := s.ScheduleWeek(context.Background())
	if err != nil {
		t.Fatalf("ScheduleWeek returned error: %v", err)
	}
	if created != 5 {
		t.Errorf("created = %d, want 5 (one slot skipped)", created)
	}
	if posts.count() != 5 {
		t.Errorf("repo holds %d posts, want 5", posts.count())
	}
}
