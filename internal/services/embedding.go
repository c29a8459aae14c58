package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// EmbeddingDimensions is the fixed vector size of every stored and query embedding.
const EmbeddingDimensions = 768

// EmbeddingProvider returns the raw vector of a model, of whatever length
// the model produces.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type EmbeddingService struct {
	provider EmbeddingProvider
	logger   *zap.Logger
}

func NewEmbeddingService(provider EmbeddingProvider, logger *zap.Logger) *EmbeddingService {
	return &EmbeddingService{provider: provider, logger: logger}
}

// Generate returns exactly EmbeddingDimensions values. Longer provider
// output is truncated; shorter output is ErrDimensionMismatch.
func (s *EmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	values, err := s.provider.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	switch {
	case len(values) > EmbeddingDimensions:
		s.logger.Debug("truncating embedding",
			zap.Int("got", len(values)),
			zap.Int("want", EmbeddingDimensions))
		values = values[:EmbeddingDimensions]
	case len(values) < EmbeddingDimensions:
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), EmbeddingDimensions)
	}

	return values, nil
}

// GenerateForProfile is Generate for listing/profile writes: blank text
// yields no vector and no provider call.
func (s *EmbeddingService) GenerateForProfile(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.Generate(ctx, text)
}

// Normalize scales v to unit length. The zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
