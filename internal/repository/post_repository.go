package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (string, error)
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Update(ctx context.Context, post *models.ScheduledPost) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, image_url, asset_id, caption, hashtags, scheduled_for, status, external_post_id, published_at, error_message, retry_count, next_retry_at, caption_source, created_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (string, error) {
	query := `
		INSERT INTO scheduled_posts (id, image_url, asset_id, caption, hashtags, scheduled_for, status, caption_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id string
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.ID, post.ImageURL, nullString(post.AssetID), post.Caption, post.Hashtags, post.ScheduledFor, post.Status, post.CaptionSource).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.ID, post.ImageURL, nullString(post.AssetID), post.Caption, post.Hashtags, post.ScheduledFor, post.Status, post.CaptionSource).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts ORDER BY scheduled_for ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `
		SELECT ` + postColumns + ` FROM scheduled_posts
		WHERE (status = $1 AND scheduled_for <= $3)
		   OR (status = $2 AND next_retry_at IS NOT NULL AND next_retry_at <= $3)
		ORDER BY scheduled_for ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, models.PostStatusRetrying, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) Update(ctx context.Context, post *models.ScheduledPost) error {
	query := `
		UPDATE scheduled_posts
		SET image_url = $1,
			asset_id = $2,
			caption = $3,
			hashtags = $4,
			scheduled_for = $5,
			status = $6,
			external_post_id = $7,
			published_at = $8,
			error_message = $9,
			retry_count = $10,
			next_retry_at = $11,
			caption_source = $12
		WHERE id = $13
	`

	res, err := r.db.ExecContext(ctx, query,
		post.ImageURL, nullString(post.AssetID), post.Caption, post.Hashtags, post.ScheduledFor, post.Status,
		nullString(post.ExternalPostID), post.PublishedAt, nullString(post.ErrorMessage),
		post.RetryCount, post.NextRetryAt, post.CaptionSource, post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return &models.NotFoundError{Entity: "post", ID: post.ID}
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	var assetID, externalID, errorMessage sql.NullString

	err := row.Scan(&post.ID, &post.ImageURL, &assetID, &post.Caption, &post.Hashtags, &post.ScheduledFor,
		&post.Status, &externalID, &post.PublishedAt, &errorMessage, &post.RetryCount,
		&post.NextRetryAt, &post.CaptionSource, &post.CreatedAt)
	if err != nil {
		return nil, err
	}

	post.AssetID = assetID.String
	post.ExternalPostID = externalID.String
	post.ErrorMessage = errorMessage.String
	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
