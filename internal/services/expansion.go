package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/metrics"
)

// TextGenerator is the slice of GeminiService the AI features need.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error)
}

type QueryExpansionService struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewQueryExpansionService(generator TextGenerator, logger *zap.Logger) *QueryExpansionService {
	return &QueryExpansionService{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		logger:        logger,
	}
}

// ExpandQuery enriches query with related terms. Any failure yields the
// original query; it never returns an error.
func (s *QueryExpansionService) ExpandQuery(ctx context.Context, query string, intent SearchIntent) string {
	prompt := s.promptBuilder.BuildQueryExpansionPrompt(query, intent)

	expanded, err := s.generator.GenerateText(ctx, prompt, 0.3)
	if err != nil {
		s.logger.Warn("query expansion failed, using original query",
			zap.String("intent", string(intent)),
			zap.Error(err))
		metrics.QueryExpansionTotal.WithLabelValues(string(intent), "fallback").Inc()
		return query
	}

	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		s.logger.Warn("query expansion returned empty text, using original query",
			zap.String("intent", string(intent)))
		metrics.QueryExpansionTotal.WithLabelValues(string(intent), "fallback").Inc()
		return query
	}

	metrics.QueryExpansionTotal.WithLabelValues(string(intent), "expanded").Inc()
	return expanded
}
