package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/metrics"
)

// restEmbedder calls the Gemini :embedContent REST method without the SDK.
type restEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRESTEmbedder(baseURL, apiKey, model string, logger *zap.Logger) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &restEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type embedContentRequest struct {
	Model                string       `json:"model"`
	Content              embedContent `json:"content"`
	OutputDimensionality int          `json:"outputDimensionality,omitempty"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

// embedContentResponse covers both response shapes the endpoint has used.
type embedContentResponse struct {
	Embedding *struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

// EmbedText implements EmbeddingProvider.
func (e *restEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	values, err := e.embed(ctx, text)
	metrics.EmbeddingRequestDuration.WithLabelValues("rest", e.model).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("rest", e.model, status).Inc()
	return values, err
}

func (e *restEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedContentRequest{
		Model:                "models/" + e.model,
		Content:              embedContent{Parts: []embedPart{{Text: text}}},
		OutputDimensionality: EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:embedContent?%s",
		e.baseURL, url.PathEscape(e.model), url.Values{"key": []string{e.apiKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrEmbeddingProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Warn("embedding endpoint rejected request", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingProvider, newUpstreamError("gemini", resp.StatusCode, respBody))
	}

	return decodeEmbeddingResponse(respBody)
}

// decodeEmbeddingResponse accepts {"embedding":{"values":[...]}} and
// {"embeddings":[{"values":[...]}]}.
func decodeEmbeddingResponse(body []byte) ([]float32, error) {
	var resp embedContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEmbeddingProvider, err)
	}

	switch {
	case resp.Embedding != nil && len(resp.Embedding.Values) > 0:
		return resp.Embedding.Values, nil
	case len(resp.Embeddings) > 0 && len(resp.Embeddings[0].Values) > 0:
		return resp.Embeddings[0].Values, nil
	default:
		return nil, fmt.Errorf("%w: response has no embedding values", ErrEmbeddingProvider)
	}
}
