package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeEmbeddingResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr bool
	}{
		{name: "single embedding shape", body: `{"embedding":{"values":[0.1,0.2,0.3]}}`, want: []float32{0.1, 0.2, 0.3}},
		{name: "batch shape", body: `{"embeddings":[{"values":[0.4,0.5]},{"values":[9]}]}`, want: []float32{0.4, 0.5}},
		{name: "no values", body: `{"embedding":{"values":[]}}`, wantErr: true},
		{name: "unrelated object", body: `{"foo":"bar"}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEmbeddingResponse([]byte(tt.body))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrEmbeddingProvider))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRESTEmbedder_EmbedText(t *testing.T) {
	var gotPath, gotKey string
	var gotReq embedContentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"embedding":{"values":[1,2,3]}}`))
	}))
	defer srv.Close()

	embedder := NewRESTEmbedder(srv.URL, "secret", "text-embedding-004", zap.NewNop())
	got, err := embedder.EmbedText(context.Background(), "go developer")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got)
	assert.Equal(t, "/v1beta/models/text-embedding-004:embedContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "models/text-embedding-004", gotReq.Model)
	assert.Equal(t, "go developer", gotReq.Content.Parts[0].Text)
	assert.Equal(t, EmbeddingDimensions, gotReq.OutputDimensionality)
}

func TestRESTEmbedder_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	embedder := NewRESTEmbedder(srv.URL, "secret", "text-embedding-004", zap.NewNop())
	got, err := embedder.EmbedText(context.Background(), "go developer")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrEmbeddingProvider))
	assert.Contains(t, err.Error(), "429")
}
