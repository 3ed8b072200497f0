package models

import "time"

// PublishAttempt is one row of the publish audit trail, written after
// every external publish call regardless of outcome.
type PublishAttempt struct {
	ID           int64     `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	Outcome      string    `db:"outcome" json:"outcome"` // success, failure
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	AttemptOutcomeSuccess = "success"
	AttemptOutcomeFailure = "failure"
)
