package service

import (
	"context"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

// CompareService runs the same transformation through two backends at
// once and reports both outcomes independently. This is the only place
// two external transform calls are deliberately in flight together.
type CompareService interface {
	Compare(ctx context.Context, assetID, style, prompt string) (*transfer.ComparisonResult, error)
	Adopt(ctx context.Context, req *transfer.AdoptRequest) (string, error)
}

type compareService struct {
	ma       repository.MediaAssetRepository
	ts       TransformService
	ingest   AssetIngestor
	backends [2]string
}

func NewCompareService(ma repository.MediaAssetRepository, ts TransformService, ingest AssetIngestor, modelA, modelB string) CompareService {
	return &compareService{ma: ma, ts: ts, ingest: ingest, backends: [2]string{modelA, modelB}}
}

func (s *compareService) Compare(ctx context.Context, assetID, style, prompt string) (*transfer.ComparisonResult, error) {
	if style == "" {
		return nil, models.NewValidationError("no style selected")
	}
	if style == batchStyleCustom && prompt == "" {
		return nil, models.NewValidationError("custom style requires a prompt")
	}

	asset, err := s.ma.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, &models.NotFoundError{Entity: "asset", ID: assetID}
	}

	entries := make([]transfer.ComparisonEntry, len(s.backends))

	var wg sync.WaitGroup
	for i, backend := range s.backends {
		wg.Add(1)
		go func(i int, backend string) {
			defer wg.Done()

			outputURL, err := s.ts.Transform(ctx, asset, style, prompt, backend)
			if err != nil {
				entries[i] = transfer.ComparisonEntry{Model: backend, Error: err.Error()}
				return
			}
			entries[i] = transfer.ComparisonEntry{Model: backend, Success: true, OutputURL: outputURL}
		}(i, backend)
	}
	wg.Wait()

	return &transfer.ComparisonResult{AssetID: assetID, Entries: entries}, nil
}

// Adopt persists a successful comparison output as a new library asset.
// The output is ingested into the bucket first; the backend's preview
// URL is ephemeral.
func (s *compareService) Adopt(ctx context.Context, req *transfer.AdoptRequest) (string, error) {
	if req == nil || !req.Entry.Success || req.Entry.OutputURL == "" {
		return "", models.NewValidationError("only a successful result can be adopted")
	}

	source, err := s.ma.GetByID(ctx, req.AssetID)
	if err != nil {
		return "", err
	}
	if source == nil {
		return "", &models.NotFoundError{Entity: "asset", ID: req.AssetID}
	}

	stored, err := s.ingest.Ingest(ctx, req.Entry.OutputURL)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	adopted := &models.MediaAsset{
		ID:         id,
		SourcePath: stored.Key,
		FileURL:    stored.PublicURL,
		MimeType:   stored.MimeType,
		Tags:       []string{req.Entry.Model, "comparison"},
	}

	return s.ma.Create(ctx, nil, adopted)
}
