package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/vallonadams18-dot/boothflow/internal/models"
	"github.com/vallonadams18-dot/boothflow/internal/transfer"
)

// CaptionService generates a caption and hashtags for an asset. Failures
// are ExternalServiceErrors; the auto scheduler degrades to a template
// instead of aborting when this call fails.
type CaptionService interface {
	Generate(ctx context.Context, description, toneHint string) (*transfer.CaptionResult, error)
}

type geminiCaptionService struct {
	client  *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGeminiCaptionService(apiKey, model string) (CaptionService, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiCaption",
		MaxRequests: 5,
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

	return &geminiCaptionService{
		client:  client,
		model:   model,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(0.15), 2),
	}, nil
}

func (s *geminiCaptionService) Generate(ctx context.Context, description, toneHint string) (*transfer.CaptionResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &models.ExternalServiceError{Service: "gemini", Reason: err.Error()}
	}

	prompt := buildCaptionPrompt(description, toneHint)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		model := s.client.GenerativeModel(s.model)
		model.SetTemperature(0.8)
		model.SetMaxOutputTokens(256)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, &models.ExternalServiceError{Service: "gemini", Reason: err.Error()}
	}

	text := responseText(result.(*genai.GenerateContentResponse))
	if text == "" {
		return nil, &models.ExternalServiceError{Service: "gemini", Reason: "empty caption response"}
	}

	return parseCaptionResponse(text), nil
}

func buildCaptionPrompt(description, toneHint string) string {
	return fmt.Sprintf(
		"Write a short Instagram caption for a photo booth rental business.\n"+
			"Photo: %s\nTone: %s\n"+
			"Reply with exactly two lines:\nCaption: <caption>\nHashtags: <space separated hashtags>",
		description, toneHint)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

func parseCaptionResponse(text string) *transfer.CaptionResult {
	result := &transfer.CaptionResult{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Caption:"):
			result.Caption = strings.TrimSpace(strings.TrimPrefix(line, "Caption:"))
		case strings.HasPrefix(line, "Hashtags:"):
			result.Hashtags = strings.TrimSpace(strings.TrimPrefix(line, "Hashtags:"))
		}
	}

	// Models occasionally ignore the format; keep whatever came back.
	if result.Caption == "" {
		result.Caption = text
	}
	return result
}
