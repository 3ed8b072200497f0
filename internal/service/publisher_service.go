package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

const graphAPIBase = "https://graph.instagram.com/v21.0"

// PublisherService is the external publish boundary. Publish returns the
// platform's post id on success; any failure comes back as an
// ExternalServiceError and is recorded by the caller, never thrown away.
type PublisherService interface {
	Publish(ctx context.Context, imageURL, caption string) (string, error)
	ConnectionStatus(ctx context.Context) (*transfer.ConnectionStatus, error)
}

type instagramPublisher struct {
	cfg    config.Config
	client *http.Client
}

func NewInstagramPublisher(cfg config.Config) PublisherService {
	return &instagramPublisher{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Publish creates a media container for the image and then publishes it.
// The platform rejects stale image URLs itself; no local freshness check.
func (p *instagramPublisher) Publish(ctx context.Context, imageURL, caption string) (string, error) {
	containerID, err := p.createContainer(ctx, imageURL, caption)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/media_publish", graphAPIBase, p.cfg.Instagram.UserID)
	data := url.Values{}
	data.Set("creation_id", containerID)
	data.Set("access_token", p.cfg.Instagram.AccessToken)

	resp, err := p.postForm(ctx, endpoint, data)
	if err != nil {
		return "", err
	}

	return resp.ID, nil
}

func (p *instagramPublisher) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media", graphAPIBase, p.cfg.Instagram.UserID)
	data := url.Values{}
	data.Set("image_url", imageURL)
	data.Set("caption", caption)
	data.Set("access_token", p.cfg.Instagram.AccessToken)

	resp, err := p.postForm(ctx, endpoint, data)
	if err != nil {
		return "", err
	}

	return resp.ID, nil
}

func (p *instagramPublisher) postForm(ctx context.Context, endpoint string, data url.Values) (*transfer.PublishContainerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr transfer.PublishErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, &models.ExternalServiceError{Service: "instagram", Reason: apiErr.Error.Message}
		}
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var result transfer.PublishContainerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: "failed to decode response"}
	}
	if result.ID == "" {
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: "response carried no id"}
	}

	return &result, nil
}

// ConnectionStatus surfaces credential health for the dashboard; it is
// not on the scheduling critical path.
func (p *instagramPublisher) ConnectionStatus(ctx context.Context) (*transfer.ConnectionStatus, error) {
	endpoint := fmt.Sprintf("%s/me?fields=username&access_token=%s", graphAPIBase, url.QueryEscape(p.cfg.Instagram.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: err.Error()}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &transfer.ConnectionStatus{Connected: false}, nil
	}

	var result struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "instagram", Reason: "failed to decode response"}
	}

	return &transfer.ConnectionStatus{Connected: true, AccountName: result.Username}, nil
}
