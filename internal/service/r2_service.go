package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/internal/models"
)

// AssetStager copies a library asset into the scheduled/ prefix so the
// post references a stable copy. A staging failure skips the slot.
type AssetStager interface {
	Stage(ctx context.Context, asset *models.MediaAsset) (string, error)
}

// IngestedObject describes a remote image pulled into the bucket.
type IngestedObject struct {
	Key       string
	PublicURL string
	MimeType  string
}

// AssetIngestor downloads a remote image and stores it under an owned
// key. Transform backends serve their outputs from ephemeral URLs, so
// anything worth keeping is ingested before it is persisted as an asset.
type AssetIngestor interface {
	Ingest(ctx context.Context, sourceURL string) (*IngestedObject, error)
}

type R2Service struct {
	config cfg.Config
	client *http.Client
}

func NewR2Service(cfg cfg.Config) *R2Service {
	return &R2Service{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *R2Service) s3Client(ctx context.Context) (*s3.Client, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awscfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

// Upload stores a file under key in the R2 bucket.
func (r *R2Service) Upload(ctx context.Context, key string, file []byte, contentType string) error {
	client, err := r.s3Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

// Stage copies the asset's object to a scheduled/ key and returns the
// public URL of the copy.
func (r *R2Service) Stage(ctx context.Context, asset *models.MediaAsset) (string, error) {
	client, err := r.s3Client(ctx)
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := "scheduled/" + id

	input := &s3.CopyObjectInput{
		Bucket:     aws.String(r.config.R2.BucketName),
		CopySource: aws.String(fmt.Sprintf("%s/%s", r.config.R2.BucketName, asset.SourcePath)),
		Key:        aws.String(key),
	}

	if _, err := client.CopyObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return r.PublicURL(key), nil
}

// Ingest downloads the image at sourceURL and stores it under a
// transformed/ key in the bucket.
func (r *R2Service) Ingest(ctx context.Context, sourceURL string) (*IngestedObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "transform", Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.ExternalServiceError{Service: "transform", Reason: fmt.Sprintf("fetching output: unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "transform", Reason: err.Error()}
	}

	mimeType := resp.Header.Get("Content-Type")
	if t, err := filetype.Match(body); err == nil && t.MIME.Value != "" {
		mimeType = t.MIME.Value
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	key := "transformed/" + id

	if err := r.Upload(ctx, key, body, mimeType); err != nil {
		return nil, err
	}

	return &IngestedObject{Key: key, PublicURL: r.PublicURL(key), MimeType: mimeType}, nil
}

// PublicURL builds the public-bucket URL for a stored key.
func (r *R2Service) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", r.config.R2.PublicBaseURL, key)
}
