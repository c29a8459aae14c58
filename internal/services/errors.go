package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch signals an embedding shorter than EmbeddingDimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingProvider signals a failed call to the embedding provider.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrUpstream signals a non-2xx answer from an upstream REST API.
	ErrUpstream = errors.New("upstream request failed")
	// ErrInvalidToken signals an ID token the identity service rejected.
	ErrInvalidToken = errors.New("invalid id token")
	// ErrInvalidSchema signals a caller-supplied JSON schema that does not compile.
	ErrInvalidSchema = errors.New("invalid json schema")
	// ErrSchemaMismatch signals model output that does not satisfy the requested schema.
	ErrSchemaMismatch = errors.New("model output does not match schema")
	// ErrEmptyGeneration signals a model response with no usable text.
	ErrEmptyGeneration = errors.New("empty generation result")
)

// UpstreamError carries the status and a bounded body of a failed upstream call.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", ErrUpstream.Error(), e.Service, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

func newUpstreamError(service string, status int, body []byte) error {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &UpstreamError{Service: service, Status: status, Body: string(body)}
}
