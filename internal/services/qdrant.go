package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/metrics"
)

// QdrantService is the alternative vector store. It serves the same
// VectorSearcher contract as the Firestore client, one collection per
// listing kind.
type QdrantService interface {
	VectorSearcher
	InitCollections(ctx context.Context, collections ...string) error
	UpsertListing(ctx context.Context, collection string, id uuid.UUID, payload map[string]interface{}, embedding []float32) error
	DeleteListing(ctx context.Context, collection string, id uuid.UUID) error
}

type qdrantService struct {
	client     *qdrant.Client
	prefix     string
	vectorSize uint64
	logger     *zap.Logger
}

func NewQdrantService(urlStr, apiKey, prefix string, logger *zap.Logger) (QdrantService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:     client,
		prefix:     prefix,
		vectorSize: EmbeddingDimensions,
		logger:     logger,
	}, nil
}

func (q *qdrantService) Backend() string { return "qdrant" }

func (q *qdrantService) collectionName(collection string) string {
	if q.prefix == "" {
		return collection
	}
	return q.prefix + "_" + collection
}

// InitCollections implements QdrantService.
func (q *qdrantService) InitCollections(ctx context.Context, collections ...string) error {
	for _, c := range collections {
		name := q.collectionName(c)

		exists, err := q.client.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", name, err)
		}
		if exists {
			continue
		}

		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.vectorSize,
				Distance: qdrant.Distance_Dot,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		q.logger.Info("qdrant collection created", zap.String("collection", name))
	}
	return nil
}

// UpsertListing implements QdrantService. The listing UUID is the point ID
// so re-running a backfill overwrites instead of duplicating.
func (q *qdrantService) UpsertListing(ctx context.Context, collection string, id uuid.UUID, payload map[string]interface{}, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(id.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(payload),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName(collection),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Search implements VectorSearcher.
func (q *qdrantService) Search(ctx context.Context, vq VectorQuery) ([]ScoredResult, error) {
	results, err := q.search(ctx, vq)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(q.Backend(), vq.Collection, status).Inc()
	if err == nil {
		metrics.SearchResults.WithLabelValues(vq.Collection).Observe(float64(len(results)))
	}
	return results, err
}

func (q *qdrantService) search(ctx context.Context, vq VectorQuery) ([]ScoredResult, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName(vq.Collection),
		Query:          qdrant.NewQuery(vq.Vector...),
		Filter:         qdrantFilter(vq.Filters),
		Limit:          qdrant.PtrOf(uint64(ClampLimit(vq.Limit))),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]ScoredResult, 0, len(points))
	for _, point := range points {
		data := make(map[string]interface{}, len(point.GetPayload())+1)
		for k, v := range point.GetPayload() {
			data[k] = unwrapQdrantValue(v)
		}
		if dense := point.GetVectors().GetVector().GetData(); len(dense) > 0 {
			data[embeddingFieldPath] = dense
		}
		results = append(results, scoreFields(pointID(point.GetId()), data, vq.Vector))
	}
	return results, nil
}

// DeleteListing implements QdrantService.
func (q *qdrantService) DeleteListing(ctx context.Context, collection string, id uuid.UUID) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName(collection),
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id.String())),
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

func qdrantFilter(filters []Filter) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	must := make([]*qdrant.Condition, 0, len(filters))
	for _, f := range filters {
		switch v := f.Value.(type) {
		case string:
			must = append(must, qdrant.NewMatch(f.Field, v))
		case bool:
			must = append(must, qdrant.NewMatchBool(f.Field, v))
		case int:
			must = append(must, qdrant.NewMatchInt(f.Field, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(f.Field, v))
		case float64:
			if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
				must = append(must, qdrant.NewMatchInt(f.Field, int64(v)))
				continue
			}
			// match has no float variant; an equal-bounds range is exact equality
			bound := v
			must = append(must, qdrant.NewRange(f.Field, &qdrant.Range{Gte: &bound, Lte: &bound}))
		default:
			must = append(must, qdrant.NewMatch(f.Field, fmt.Sprint(v)))
		}
	}
	return &qdrant.Filter{Must: must}
}

// unwrapQdrantValue converts a payload value into plain Go data with the
// same rules as Unwrap: unknown kinds become nil.
func unwrapQdrantValue(v *qdrant.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = unwrapQdrantValue(item)
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]interface{}, len(fields))
		for k, item := range fields {
			out[k] = unwrapQdrantValue(item)
		}
		return out
	default:
		return nil
	}
}

func pointID(id *qdrant.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
