package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/hirematch/internal/metrics"
)

type GeminiService interface {
	EmbeddingProvider
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	logger     *zap.Logger
}

func NewGeminiService(apiKey, textModel, embedModel string, logger *zap.Logger) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  textModel,
		embedModel: embedModel,
		logger:     logger,
	}, nil
}

// EmbedText implements EmbeddingProvider.
func (g *geminiService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	dims := int32(EmbeddingDimensions)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	metrics.EmbeddingRequestDuration.WithLabelValues("sdk", g.embedModel).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("sdk", g.embedModel, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("sdk", g.embedModel, "empty").Inc()
		return nil, fmt.Errorf("%w: empty embedding result", ErrEmbeddingProvider)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("sdk", g.embedModel, "ok").Inc()
	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	})
}

// GenerateJSON implements GeminiService. The model is constrained to a JSON
// response; callers still run the result through extractJSON.
func (g *geminiService) GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	})
}

func (g *geminiService) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		g.logger.Error("gemini generate failed", zap.String("model", g.modelName), zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrEmptyGeneration)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := ""
		if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
			reason = string(resp.Candidates[0].FinishReason)
		}
		g.logger.Warn("gemini returned no text", zap.String("finish_reason", reason))
		return "", ErrEmptyGeneration
	}

	return text, nil
}
