package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
)

const (
	JobsCollection       = "jobs"
	CandidatesCollection = "candidates"
)

// ErrEmptyQuery signals a search request with a blank query.
var ErrEmptyQuery = errors.New("query is required")

// QueryEmbedder is the slice of EmbeddingService the search pipeline needs.
type QueryEmbedder interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

type QueryExpander interface {
	ExpandQuery(ctx context.Context, query string, intent SearchIntent) string
}

type SearchService struct {
	expander QueryExpander
	embedder QueryEmbedder
	searcher VectorSearcher
	logger   *zap.Logger
}

func NewSearchService(expander QueryExpander, embedder QueryEmbedder, searcher VectorSearcher, logger *zap.Logger) *SearchService {
	return &SearchService{
		expander: expander,
		embedder: embedder,
		searcher: searcher,
		logger:   logger,
	}
}

// SearchJobs runs a semantic search over active job postings.
func (s *SearchService) SearchJobs(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	return s.search(ctx, req, IntentJob, JobsCollection, Filter{Field: "status", Value: "active"})
}

// SearchCandidates runs a semantic search over public candidate profiles.
func (s *SearchService) SearchCandidates(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	return s.search(ctx, req, IntentCandidate, CandidatesCollection, Filter{Field: "visibility", Value: "public"})
}

func (s *SearchService) search(ctx context.Context, req models.SearchRequest, intent SearchIntent, collection string, base Filter) (*models.SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	expanded := s.expander.ExpandQuery(ctx, query, intent)

	vector, err := s.embedder.Generate(ctx, expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.searcher.Search(ctx, VectorQuery{
		Collection: collection,
		Vector:     vector,
		Filters:    append([]Filter{base}, requestFilters(req.Filters, base.Field)...),
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search on %s failed: %w", collection, err)
	}

	s.logger.Info("search completed",
		zap.String("collection", collection),
		zap.String("backend", s.searcher.Backend()),
		zap.Int("results", len(results)))

	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		out[i] = r
	}

	return &models.SearchResponse{
		Query:         query,
		ExpandedQuery: expanded,
		Results:       out,
		Count:         len(out),
	}, nil
}

// requestFilters turns caller filters into equality predicates in key
// order. The mandatory field cannot be overridden.
func requestFilters(filters map[string]interface{}, reserved string) []Filter {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if k == reserved || strings.TrimSpace(k) == "" || k == embeddingFieldPath {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Filter, 0, len(keys))
	for _, k := range keys {
		out = append(out, Filter{Field: k, Value: filters[k]})
	}
	return out
}
