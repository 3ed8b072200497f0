package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	config "github.com/vallonadams18-dot/boothflow/configs"
	"github.com/vallonadams18-dot/boothflow/internal/models"
)

// TransformService invokes the external style-transformation backend for
// one asset. Idempotent from the caller's side; output is not
// deterministic across calls.
type TransformService interface {
	Transform(ctx context.Context, asset *models.MediaAsset, style, prompt, model string) (string, error)
}

// Each model gets its own breaker and limiter. The comparison flow
// calls two models at once; one model failing or being throttled must
// not trip or delay the other.
type httpTransformService struct {
	cfg    config.Config
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

func NewTransformService(cfg config.Config) TransformService {
	return &httpTransformService{
		cfg:      cfg,
		client:   &http.Client{Timeout: 120 * time.Second},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *httpTransformService) backend(model string) (*gobreaker.CircuitBreaker, *rate.Limiter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	breaker, ok := s.breakers[model]
	if !ok {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "Transform:" + model,
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		})
		s.breakers[model] = breaker
	}

	limiter, ok := s.limiters[model]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(0.5), 1)
		s.limiters[model] = limiter
	}

	return breaker, limiter
}

type transformRequest struct {
	ImageURL string `json:"image_url"`
	Style    string `json:"style"`
	Prompt   string `json:"prompt,omitempty"`
	Model    string `json:"model"`
}

type transformResponse struct {
	OutputURL string `json:"output_url"`
	Error     string `json:"error,omitempty"`
}

func (s *httpTransformService) Transform(ctx context.Context, asset *models.MediaAsset, style, prompt, model string) (string, error) {
	breaker, limiter := s.backend(model)

	if err := limiter.Wait(ctx); err != nil {
		return "", &models.ExternalServiceError{Service: "transform", Reason: err.Error()}
	}

	body, err := json.Marshal(transformRequest{
		ImageURL: asset.FileURL,
		Style:    style,
		Prompt:   prompt,
		Model:    model,
	})
	if err != nil {
		return "", err
	}

	result, err := breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TransformAPIURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.cfg.TransformAPIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var tr transformResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("failed to decode transform response: %w", err)
		}
		if resp.StatusCode != http.StatusOK || tr.Error != "" {
			reason := tr.Error
			if reason == "" {
				reason = fmt.Sprintf("unexpected status %d", resp.StatusCode)
			}
			return nil, fmt.Errorf("%s", reason)
		}
		if tr.OutputURL == "" {
			return nil, fmt.Errorf("transform response carried no output url")
		}
		return tr.OutputURL, nil
	})
	if err != nil {
		slog.Info(err.Error())
		return "", &models.ExternalServiceError{Service: "transform", Reason: err.Error()}
	}

	return result.(string), nil
}
