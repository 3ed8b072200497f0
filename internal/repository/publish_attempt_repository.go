package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

type PublishAttemptRepository interface {
	Create(ctx context.Context, attempt *models.PublishAttempt) (int64, error)
	ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error)
}

type publishAttemptRepository struct {
	db *sql.DB
}

func NewPublishAttemptRepository(db *sql.DB) PublishAttemptRepository {
	return &publishAttemptRepository{db: db}
}

func (r *publishAttemptRepository) Create(ctx context.Context, attempt *models.PublishAttempt) (int64, error) {
	query := `
		INSERT INTO publish_attempts (post_id, outcome, error_message)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, attempt.PostID, attempt.Outcome, attempt.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishAttemptRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	query := `
		SELECT id, post_id, outcome, error_message, created_at
		FROM publish_attempts
		WHERE post_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.PublishAttempt
	for rows.Next() {
		var a models.PublishAttempt
		var errorMessage sql.NullString
		if err := rows.Scan(&a.ID, &a.PostID, &a.Outcome, &errorMessage, &a.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		a.ErrorMessage = errorMessage.String
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}
