package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
)

type AIService interface {
	GenerateJobDescription(ctx context.Context, req models.JobDescriptionRequest) (string, error)
	JobAssist(ctx context.Context, req models.JobAssistRequest) ([]string, error)
	GenerateStructured(ctx context.Context, task string, req models.StructuredRequest) (json.RawMessage, error)
}

type aiService struct {
	generator     TextGenerator
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewAIService(generator TextGenerator, logger *zap.Logger) AIService {
	return &aiService{
		generator:     generator,
		promptBuilder: NewPromptBuilder(),
		logger:        logger,
	}
}

// GenerateJobDescription implements AIService.
func (s *aiService) GenerateJobDescription(ctx context.Context, req models.JobDescriptionRequest) (string, error) {
	prompt := s.promptBuilder.BuildJobDescriptionPrompt(req)

	text, err := s.generator.GenerateText(ctx, prompt, 0.7)
	if err != nil {
		return "", fmt.Errorf("failed to generate job description: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// JobAssist implements AIService.
func (s *aiService) JobAssist(ctx context.Context, req models.JobAssistRequest) ([]string, error) {
	prompt := s.promptBuilder.BuildJobAssistPrompt(req.Title, req.Description)

	text, err := s.generator.GenerateJSON(ctx, prompt, 0.4)
	if err != nil {
		return nil, fmt.Errorf("failed to generate job tips: %w", err)
	}

	var result models.JobAssistResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &result); err != nil {
		s.logger.Warn("job assist returned invalid JSON", zap.String("raw", truncate(text, 200)))
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return result.Tips, nil
}

// GenerateStructured implements AIService. When req.Schema is set the model
// output must validate against it.
func (s *aiService) GenerateStructured(ctx context.Context, task string, req models.StructuredRequest) (json.RawMessage, error) {
	var schema *gojsonschema.Schema
	if len(req.Schema) > 0 {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(req.Schema))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		schema = compiled
	}

	prompt := s.promptBuilder.BuildStructuredPrompt(req.Prompt, req.Schema)
	text, err := s.generator.GenerateJSON(ctx, prompt, 0.3)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", task, err)
	}

	raw := []byte(extractJSON(text))
	if !json.Valid(raw) {
		s.logger.Warn("model returned invalid JSON",
			zap.String("task", task),
			zap.String("raw", truncate(text, 200)))
		return nil, fmt.Errorf("%w: output is not valid JSON", ErrSchemaMismatch)
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			s.logger.Warn("model output failed schema validation",
				zap.String("task", task),
				zap.Strings("errors", msgs))
			return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(msgs, "; "))
		}
	}

	return json.RawMessage(raw), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
