package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/vallonadams18-dot/boothflow/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (string, error)
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	List(ctx context.Context) ([]*models.MediaAsset, error)
	ListUnused(ctx context.Context) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id string) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

// is_used is derived on read: an asset counts as used once any scheduled
// post carries its id, or references its public URL directly (posts
// composed by hand from the library).
const assetUsedCondition = `EXISTS (
		SELECT 1 FROM scheduled_posts p
		WHERE p.asset_id = a.id OR p.image_url = a.file_url
	)`

const assetSelect = `
	SELECT a.id, a.source_path, a.file_url, a.mime_type, a.tags, a.created_at,
		` + assetUsedCondition + ` AS is_used
	FROM media_assets a
`

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (string, error) {
	var id string
	var err error

	query := `
		INSERT INTO media_assets (id, source_path, file_url, mime_type, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, ma.ID, ma.SourcePath, ma.FileURL, ma.MimeType, ma.Tags).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, ma.ID, ma.SourcePath, ma.FileURL, ma.MimeType, ma.Tags).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query := assetSelect + ` WHERE a.id = $1`

	var ma models.MediaAsset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ma.ID,
		&ma.SourcePath,
		&ma.FileURL,
		&ma.MimeType,
		&ma.Tags,
		&ma.CreatedAt,
		&ma.IsUsed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ma, nil
}

func (r *mediaAssetRepository) List(ctx context.Context) ([]*models.MediaAsset, error) {
	query := assetSelect + ` ORDER BY a.created_at DESC`
	return r.queryAssets(ctx, query)
}

// ListUnused returns assets with no scheduled post attached, newest
// first. The auto scheduler consumes them in this order.
func (r *mediaAssetRepository) ListUnused(ctx context.Context) ([]*models.MediaAsset, error) {
	query := `
		SELECT a.id, a.source_path, a.file_url, a.mime_type, a.tags, a.created_at, false AS is_used
		FROM media_assets a
		WHERE NOT ` + assetUsedCondition + `
		ORDER BY a.created_at DESC
	`
	return r.queryAssets(ctx, query)
}

func (r *mediaAssetRepository) queryAssets(ctx context.Context, query string, args ...any) ([]*models.MediaAsset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var ma models.MediaAsset
		err := rows.Scan(&ma.ID, &ma.SourcePath, &ma.FileURL, &ma.MimeType, &ma.Tags, &ma.CreatedAt, &ma.IsUsed)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &ma)
	}
	return assets, rows.Err()
}

func (r *mediaAssetRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM media_assets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
