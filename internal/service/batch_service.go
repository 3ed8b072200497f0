package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vallonadams18-dot/boothflow/internal/metrics"
	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/repository"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

const (
	batchStyleCustom  = "custom"
	batchProgressTTL  = time.Hour
	batchProgressKey  = "batchjob:"
	batchDefaultModel = "styleforge-v2"
)

// BatchTransformService runs a style transformation over a selection of
// assets, one item at a time. A failing item is recorded and skipped,
// never escalated; the batch always yields one result entry per input.
type BatchTransformService interface {
	Run(ctx context.Context, req *transfer.BatchTransformRequest) (*transfer.BatchSummary, error)
	Progress(ctx context.Context, jobID string) (*transfer.BatchProgress, error)
}

type batchTransformService struct {
	ma      repository.MediaAssetRepository
	ts      TransformService
	ingest  AssetIngestor
	rdb     *redis.Client
	metrics *metrics.Collector
}

func NewBatchTransformService(ma repository.MediaAssetRepository, ts TransformService, ingest AssetIngestor, rdb *redis.Client, mc *metrics.Collector) BatchTransformService {
	return &batchTransformService{ma: ma, ts: ts, ingest: ingest, rdb: rdb, metrics: mc}
}

// Run processes the selected assets sequentially in input order. The
// context is only consulted between items, so a cancellation never cuts
// off an in-flight transform call, it just stops the queue.
func (s *batchTransformService) Run(ctx context.Context, req *transfer.BatchTransformRequest) (*transfer.BatchSummary, error) {
	if err := validateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = batchDefaultModel
	}

	jobID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	summary := &transfer.BatchSummary{
		JobID:   jobID,
		Total:   len(req.AssetIDs),
		Results: make([]transfer.BatchItemResult, 0, len(req.AssetIDs)),
	}

	for i, assetID := range req.AssetIDs {
		if ctx.Err() != nil {
			slog.Info("batch transform cancelled", "job_id", jobID, "processed", i)
			s.publishProgress(jobID, summary, true)
			return summary, ctx.Err()
		}

		result := s.transformOne(ctx, assetID, req.Style, req.Prompt, model)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.SuccessCount++
		}

		outcome := models.AttemptOutcomeFailure
		if result.Success {
			outcome = models.AttemptOutcomeSuccess
		}
		if s.metrics != nil {
			s.metrics.RecordBatchItem(outcome)
		}

		s.publishProgress(jobID, summary, i == len(req.AssetIDs)-1)
	}

	slog.Info("batch transform finished", "job_id", jobID, "total", summary.Total, "success_count", summary.SuccessCount)
	return summary, nil
}

func validateBatchRequest(req *transfer.BatchTransformRequest) error {
	if req == nil || len(req.AssetIDs) == 0 {
		return models.NewValidationError("no assets selected")
	}
	if req.Style == "" {
		return models.NewValidationError("no style selected")
	}
	if req.Style == batchStyleCustom && req.Prompt == "" {
		return models.NewValidationError("custom style requires a prompt")
	}
	return nil
}

func (s *batchTransformService) transformOne(ctx context.Context, assetID, style, prompt, model string) transfer.BatchItemResult {
	asset, err := s.ma.GetByID(ctx, assetID)
	if err != nil {
		return transfer.BatchItemResult{AssetID: assetID, Error: err.Error()}
	}
	if asset == nil {
		return transfer.BatchItemResult{AssetID: assetID, Error: "asset not found"}
	}

	outputURL, err := s.ts.Transform(ctx, asset, style, prompt, model)
	if err != nil {
		return transfer.BatchItemResult{AssetID: assetID, Error: err.Error()}
	}

	storedURL, err := s.persistTransformed(ctx, outputURL, style, "batch")
	if err != nil {
		return transfer.BatchItemResult{AssetID: assetID, Error: err.Error()}
	}

	return transfer.BatchItemResult{AssetID: assetID, Success: true, OutputURL: storedURL}
}

// persistTransformed pulls the backend's output into the bucket and
// records it as a new library asset. The backend URL is never stored;
// it can expire before the image is ever published.
func (s *batchTransformService) persistTransformed(ctx context.Context, outputURL, style, provenance string) (string, error) {
	stored, err := s.ingest.Ingest(ctx, outputURL)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	transformed := &models.MediaAsset{
		ID:         id,
		SourcePath: stored.Key,
		FileURL:    stored.PublicURL,
		MimeType:   stored.MimeType,
		Tags:       []string{style, provenance},
	}

	if _, err := s.ma.Create(ctx, nil, transformed); err != nil {
		return "", err
	}
	return stored.PublicURL, nil
}

func (s *batchTransformService) publishProgress(jobID string, summary *transfer.BatchSummary, done bool) {
	if s.rdb == nil {
		return
	}

	progress := transfer.BatchProgress{
		JobID:        jobID,
		Total:        summary.Total,
		Current:      len(summary.Results),
		SuccessCount: summary.SuccessCount,
		Done:         done,
	}

	payload, err := json.Marshal(progress)
	if err != nil {
		return
	}

	// Progress is best effort; a Redis hiccup never fails the batch.
	if err := s.rdb.Set(context.Background(), batchProgressKey+jobID, payload, batchProgressTTL).Err(); err != nil {
		slog.Info(err.Error())
	}
}

func (s *batchTransformService) Progress(ctx context.Context, jobID string) (*transfer.BatchProgress, error) {
	if s.rdb == nil {
		return nil, &models.NotFoundError{Entity: "batch job", ID: jobID}
	}

	payload, err := s.rdb.Get(ctx, batchProgressKey+jobID).Bytes()
	if err == redis.Nil {
		return nil, &models.NotFoundError{Entity: "batch job", ID: jobID}
	}
	if err != nil {
		return nil, err
	}

	var progress transfer.BatchProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}
