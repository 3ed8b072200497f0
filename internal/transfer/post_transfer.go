package transfer

import "github.com/golang-jwt/jwt/v5"

type PostCreation struct {
	ImageURL     string `json:"image_url"`
	AssetID      string `json:"asset_id"` // library asset the image came from, when known
	Caption      string `json:"caption"`
	Hashtags     string `json:"hashtags"`
	ScheduledFor string `json:"scheduled_for"` // 2006-01-02T15:04
}

// PostUpdate carries a partial edit; nil fields are left untouched.
type PostUpdate struct {
	Caption      *string `json:"caption"`
	Hashtags     *string `json:"hashtags"`
	ImageURL     *string `json:"image_url"`
	ScheduledFor *string `json:"scheduled_for"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
