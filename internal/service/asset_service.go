package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
)

// AssetService owns library uploads and visibility. It never touches a
// scheduled post.
type AssetService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, tags []string) (*models.MediaAsset, error)
	List(ctx context.Context) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id string) error
}

type assetService struct {
	ma repository.MediaAssetRepository
	r2 *R2Service
}

func NewAssetService(ma repository.MediaAssetRepository, r2 *R2Service) AssetService {
	return &assetService{ma: ma, r2: r2}
}

var allowedImageTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
}

func (s *assetService) Upload(ctx context.Context, file *multipart.FileHeader, tags []string) (*models.MediaAsset, error) {
	if file == nil {
		return nil, models.NewValidationError("no file provided")
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, models.NewValidationError("unrecognized file type")
	}
	if _, ok := allowedImageTypes[fileType.Extension]; !ok {
		return nil, models.NewValidationError("file type %s is not allowed", fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	key := "library/" + id

	if err := s.r2.Upload(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := &models.MediaAsset{
		ID:         id,
		SourcePath: key,
		FileURL:    s.r2.PublicURL(key),
		MimeType:   fileType.MIME.Value,
		Tags:       cleanTags(tags),
	}

	if _, err := s.ma.Create(ctx, nil, asset); err != nil {
		return nil, fmt.Errorf("error saving asset: %w", err)
	}

	return asset, nil
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *assetService) List(ctx context.Context) ([]*models.MediaAsset, error) {
	assets, err := s.ma.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing assets: %w", err)
	}
	return assets, nil
}

func (s *assetService) Remove(ctx context.Context, id string) error {
	asset, err := s.ma.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return &models.NotFoundError{Entity: "asset", ID: id}
	}

	if err := s.ma.Remove(ctx, id); err != nil {
		return fmt.Errorf("error removing asset: %w", err)
	}
	return nil
}
