package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"alfredoptarigan/hirematch/internal/metrics"
)

const (
	datastoreScope     = "https://www.googleapis.com/auth/datastore"
	embeddingFieldPath = "embedding"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 1000
)

// Filter is an equality predicate on a document field.
type Filter struct {
	Field string
	Value interface{}
}

type VectorQuery struct {
	Collection string
	Vector     []float32
	Filters    []Filter
	Limit      int
}

// ScoredResult is a matched document: its unwrapped fields without the
// stored embedding, plus "id" and "matchScore".
type ScoredResult map[string]interface{}

// VectorSearcher runs a nearest-neighbour query against a vector store.
type VectorSearcher interface {
	Search(ctx context.Context, q VectorQuery) ([]ScoredResult, error)
	Backend() string
}

type FirestoreOptions struct {
	BaseURL    string
	ProjectID  string
	DatabaseID string
	APIKey     string
	Timeout    time.Duration
}

// FirestoreClient talks to the Firestore REST API directly.
type FirestoreClient struct {
	opts       FirestoreOptions
	tokens     oauth2.TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFirestoreClient(opts FirestoreOptions, tokens oauth2.TokenSource, logger *zap.Logger) *FirestoreClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://firestore.googleapis.com"
	}
	if opts.DatabaseID == "" {
		opts.DatabaseID = "(default)"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &FirestoreClient{
		opts:       opts,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}
}

// NewServiceTokenSource loads service credentials from credentialsFile, or
// from the environment's default credentials when the path is empty.
func NewServiceTokenSource(ctx context.Context, credentialsFile string) (oauth2.TokenSource, error) {
	if credentialsFile == "" {
		creds, err := google.FindDefaultCredentials(ctx, datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		return creds.TokenSource, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, datastoreScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}

func (c *FirestoreClient) Backend() string { return "firestore" }

func (c *FirestoreClient) documentsURL() string {
	return fmt.Sprintf("%s/v1/projects/%s/databases/%s/documents",
		strings.TrimRight(c.opts.BaseURL, "/"), c.opts.ProjectID, c.opts.DatabaseID)
}

// Search implements VectorSearcher.
func (c *FirestoreClient) Search(ctx context.Context, q VectorQuery) ([]ScoredResult, error) {
	results, err := c.RunVectorQuery(ctx, q)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(c.Backend(), q.Collection, status).Inc()
	if err == nil {
		metrics.SearchResults.WithLabelValues(q.Collection).Observe(float64(len(results)))
	}

	return results, err
}

// RunVectorQuery issues a findNearest structured query and scores every
// returned document against q.Vector.
func (c *FirestoreClient) RunVectorQuery(ctx context.Context, q VectorQuery) ([]ScoredResult, error) {
	body, err := json.Marshal(buildRunQueryRequest(q))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.documentsURL()+":runQuery", nil, body)
	if err != nil {
		return nil, err
	}

	var entries []runQueryEntry
	if err := json.Unmarshal(respBody, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode runQuery response: %w", err)
	}

	results := make([]ScoredResult, 0, len(entries))
	for _, entry := range entries {
		if entry.Document == nil {
			continue
		}
		result, err := scoreDocument(entry.Document, q.Vector)
		if err != nil {
			c.logger.Warn("skipping undecodable document",
				zap.String("name", entry.Document.Name),
				zap.Error(err))
			continue
		}
		results = append(results, result)
	}

	c.logger.Debug("vector query done",
		zap.String("collection", q.Collection),
		zap.Int("filters", len(q.Filters)),
		zap.Int("results", len(results)))

	return results, nil
}

// PatchEmbedding overwrites only the embedding field of a document.
func (c *FirestoreClient) PatchEmbedding(ctx context.Context, collection, docID string, vector []float32) error {
	return c.PatchDocument(ctx, collection, docID, nil, vector)
}

// PatchDocument writes fields and, when vector is non-nil, the embedding.
// Only the written paths are in the update mask; other fields of an
// existing document are left alone, and a missing document is created.
// An "embedding" key in fields is ignored.
func (c *FirestoreClient) PatchDocument(ctx context.Context, collection, docID string, fields map[string]interface{}, vector []float32) error {
	values := make(MapValue, len(fields)+1)
	for k, v := range fields {
		if k == embeddingFieldPath || strings.TrimSpace(k) == "" {
			continue
		}
		values[k] = ValueOf(v)
	}
	if vector != nil {
		values[embeddingFieldPath] = VectorValue(vector)
	}
	if len(values) == 0 {
		return nil
	}

	paths := make([]string, 0, len(values))
	for k := range values {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	body, err := json.Marshal(map[string]interface{}{
		"fields": encodeFields(values),
	})
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.documentsURL(), url.PathEscape(collection), url.PathEscape(docID))
	query := url.Values{"updateMask.fieldPaths": paths}

	_, err = c.do(ctx, http.MethodPatch, endpoint, query, body)
	return err
}

func (c *FirestoreClient) do(ctx context.Context, method, endpoint string, query url.Values, body []byte) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.opts.APIKey != "" {
		query.Set("key", c.opts.APIKey)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get service token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firestore request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read firestore response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newUpstreamError("firestore", resp.StatusCode, respBody)
	}
	return respBody, nil
}

type runQueryEntry struct {
	Document *restDocument `json:"document"`
}

type restDocument struct {
	Name   string          `json:"name"`
	Fields json.RawMessage `json:"fields"`
}

func scoreDocument(doc *restDocument, query []float32) (ScoredResult, error) {
	fields := MapValue{}
	if len(doc.Fields) > 0 {
		decoded, err := DecodeDocumentFields(doc.Fields)
		if err != nil {
			return nil, err
		}
		fields = decoded
	}

	return scoreFields(documentID(doc.Name), UnwrapFields(fields), query), nil
}

// scoreFields strips the stored embedding from plain document data and
// adds id and matchScore. Shared by every VectorSearcher.
func scoreFields(id string, data map[string]interface{}, query []float32) ScoredResult {
	stored := vectorFromField(data[embeddingFieldPath])
	delete(data, embeddingFieldPath)

	data["id"] = id
	data["matchScore"] = MatchScore(stored, query)
	return ScoredResult(data)
}

func documentID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ClampLimit maps a requested result count onto [1, MaxSearchLimit];
// non-positive means DefaultSearchLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}

func buildRunQueryRequest(q VectorQuery) map[string]interface{} {
	structured := map[string]interface{}{
		"from": []map[string]interface{}{{"collectionId": q.Collection}},
		"findNearest": map[string]interface{}{
			"vectorField":     map[string]interface{}{"fieldPath": embeddingFieldPath},
			"queryVector":     encodeValue(VectorValue(q.Vector)),
			"distanceMeasure": "COSINE",
			"limit":           ClampLimit(q.Limit),
		},
	}

	if where := buildWhere(q.Filters); where != nil {
		structured["where"] = where
	}

	return map[string]interface{}{"structuredQuery": structured}
}

func buildWhere(filters []Filter) map[string]interface{} {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return fieldFilter(filters[0])
	}

	parts := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, fieldFilter(f))
	}
	return map[string]interface{}{
		"compositeFilter": map[string]interface{}{
			"op":      "AND",
			"filters": parts,
		},
	}
}

func fieldFilter(f Filter) map[string]interface{} {
	return map[string]interface{}{
		"fieldFilter": map[string]interface{}{
			"field": map[string]interface{}{"fieldPath": f.Field},
			"op":    "EQUAL",
			"value": encodeValue(ValueOf(f.Value)),
		},
	}
}
