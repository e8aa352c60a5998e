package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"founder-ai/internal/contextutil"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{client: client}, nil
}

// Upsert inserts or updates rows in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, rows []Row) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(rows) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(rows))
	for _, row := range rows {
		point := &qdrant.PointStruct{
			Id:      qdrant.NewID(row.ID),
			Vectors: qdrant.NewVectors(row.Vec...),
		}
		if len(row.Payload) > 0 {
			point.Payload = qdrant.NewValueMap(row.Payload)
		}
		points = append(points, point)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert rows", "collection", collection, "count", len(rows), "error", err)
		return fmt.Errorf("failed to upsert rows: %w", err)
	}

	logger.InfoContext(ctx, "upserted rows", "collection", collection, "count", len(rows))
	return nil
}

// DeleteBySource removes every row matching the source identity filter.
func (s *QdrantStore) DeleteBySource(ctx context.Context, collection, sourceOrigin, sourceID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source_origin", sourceOrigin),
			qdrant.NewMatch("source_id", sourceID),
		},
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete rows by source",
			"collection", collection, "source_origin", sourceOrigin, "source_id", sourceID, "error", err)
		return fmt.Errorf("failed to delete rows by source: %w", err)
	}

	logger.InfoContext(ctx, "deleted rows by source",
		"collection", collection, "source_origin", sourceOrigin, "source_id", sourceID)
	return nil
}

// Search performs a cosine similarity search with a score threshold.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, threshold float32, limit int) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	limit64 := uint64(limit)
	queryReq := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit64,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if threshold > 0 {
		queryReq.ScoreThreshold = &threshold
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search rows", "collection", collection, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to search rows: %w", err)
	}

	matches := make([]Match, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		id := ""
		if point.Id != nil {
			id = point.Id.GetUuid()
		}

		payload := make(map[string]any)
		if point.Payload != nil {
			payload = convertPayloadToMap(point.Payload)
		}

		matches = append(matches, Match{
			ID:         id,
			Similarity: point.Score,
			Payload:    payload,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "limit", limit, "results", len(matches))
	return matches, nil
}

// EnsureCollection ensures a collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}

	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}

	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}

	if params.Size == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(params.Size) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, params.Size)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// CollectionExists reports whether the collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// convertPayloadToMap converts a Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to a Go any value.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
