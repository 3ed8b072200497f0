package models

import "time"

type ScheduledPost struct {
	ID             string     `db:"id" json:"id"`
	ImageURL       string     `db:"image_url" json:"image_url"`
	AssetID        string     `db:"asset_id" json:"asset_id,omitempty"`
	Caption        string     `db:"caption" json:"caption"`
	Hashtags       string     `db:"hashtags" json:"hashtags,omitempty"`
	ScheduledFor   time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status         string     `db:"status" json:"status"`
	ExternalPostID string     `db:"external_post_id" json:"external_post_id,omitempty"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	RetryCount     int        `db:"retry_count" json:"retry_count"`
	NextRetryAt    *time.Time `db:"next_retry_at" json:"next_retry_at,omitempty"`
	CaptionSource  string     `db:"caption_source" json:"caption_source"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

const (
	PostStatusPending    = "pending"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
	PostStatusRetrying   = "retrying"
	PostStatusCancelled  = "cancelled"
)

const (
	CaptionSourceManual    = "manual"
	CaptionSourceGenerated = "generated"
	CaptionSourceFallback  = "fallback"
)

// Cancellable reports whether an operator may cancel the post from its
// current status. Cancelling mid-publish is not defined; the attempt is
// left to resolve first.
func (p *ScheduledPost) Cancellable() bool {
	switch p.Status {
	case PostStatusPending, PostStatusRetrying, PostStatusFailed:
		return true
	}
	return false
}

// Publishable reports whether a publish attempt may start from the
// current status.
func (p *ScheduledPost) Publishable() bool {
	return p.Status == PostStatusPending || p.Status == PostStatusRetrying
}
