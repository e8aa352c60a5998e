package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"founder-ai/internal/chunker"
	"founder-ai/internal/contextutil"
	"founder-ai/internal/storage"
	"founder-ai/internal/transcript"
	"founder-ai/internal/vectorstore"
)

// DefaultInsertBatchSize bounds payload size per insert call.
const DefaultInsertBatchSize = 50

var (
	// ErrNoSegments rejects transcripts with an empty body before any I/O.
	ErrNoSegments = errors.New("transcript has no segments")

	// ErrUnresolvedSource rejects transcripts whose source id could not be
	// determined; persistence requires a (source_origin, source_id) identity.
	ErrUnresolvedSource = errors.New("transcript source id is unresolved")
)

// Embedder generates one fixed-dimension vector per input text, in order.
// Defined here from the consumer's perspective; llm.EmbeddingsClient
// implements it.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Result reports what one ingestion wrote.
type Result struct {
	ChunksWritten int
}

// Coordinator orchestrates chunk → embed → replace-by-source for
// transcripts. Ingestion is idempotent per (source_origin, source_id):
// every run deletes all previously stored rows for the identity before
// inserting the new ones. Concurrent ingestion of distinct sources is
// safe; callers must serialize ingestion of the same source.
type Coordinator struct {
	chunker         *chunker.Chunker
	embedder        Embedder
	vectorStore     vectorstore.VectorStore
	collection      string
	transcriptRepo  storage.TranscriptStore
	insertBatchSize int
}

// NewCoordinator creates a Coordinator. transcriptRepo may be nil when no
// catalog bookkeeping is wanted (tests). insertBatchSize <= 0 falls back
// to DefaultInsertBatchSize.
func NewCoordinator(
	ch *chunker.Chunker,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	transcriptRepo storage.TranscriptStore,
	insertBatchSize int,
) *Coordinator {
	if insertBatchSize <= 0 {
		insertBatchSize = DefaultInsertBatchSize
	}
	return &Coordinator{
		chunker:         ch,
		embedder:        embedder,
		vectorStore:     vectorStore,
		collection:      collection,
		transcriptRepo:  transcriptRepo,
		insertBatchSize: insertBatchSize,
	}
}

// Ingest runs the full pipeline for one transcript. Steps are strictly
// sequential; the first failure aborts the run. Batched inserts are
// at-least-once, not atomic: a failed batch stops the remaining batches
// and the error reports how many rows were committed versus attempted.
// The delete step on the next attempt clears any partial state.
func (c *Coordinator) Ingest(ctx context.Context, t transcript.Transcript) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !t.HasSegments() {
		return Result{}, fmt.Errorf("%w: %s/%s", ErrNoSegments, t.SourceOrigin, t.SourceID)
	}
	if t.SourceID == "" {
		return Result{}, ErrUnresolvedSource
	}

	chunks := c.chunker.Chunk(t.Segments)
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("%w: %s/%s", ErrNoSegments, t.SourceOrigin, t.SourceID)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	embeddings, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return Result{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	rows := c.buildRows(t, chunks, embeddings)

	// Full replacement, never a merge: clear every stored row for this
	// source identity before inserting the new generation.
	if err := c.vectorStore.DeleteBySource(ctx, c.collection, t.SourceOrigin, t.SourceID); err != nil {
		return Result{}, fmt.Errorf("failed to delete stale rows: %w", err)
	}

	committed := 0
	for start := 0; start < len(rows); start += c.insertBatchSize {
		end := start + c.insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := c.vectorStore.Upsert(ctx, c.collection, rows[start:end]); err != nil {
			return Result{ChunksWritten: committed},
				fmt.Errorf("insert aborted after %d of %d rows: %w", committed, len(rows), err)
		}
		committed = end
	}

	if c.transcriptRepo != nil {
		record := &storage.TranscriptRecord{
			ID:                uuid.New().String(),
			SourceOrigin:      t.SourceOrigin,
			SourceID:          t.SourceID,
			Title:             t.Title,
			URL:               t.URL,
			SpeakerName:       t.Speaker.Name,
			SpeakerTitle:      t.Speaker.Title,
			SpeakerBackground: t.Speaker.Background,
			Description:       t.Description,
			Topics:            strings.Join(t.Topics, ","),
			SegmentCount:      len(t.Segments),
			ChunkCount:        len(chunks),
		}
		if err := c.transcriptRepo.Upsert(ctx, record); err != nil {
			// Vector rows are already written; the catalog is
			// bookkeeping, not the source of truth.
			logger.WarnContext(ctx, "failed to upsert transcript catalog record",
				"source_id", t.SourceID, "error", err)
		}
	}

	logger.InfoContext(ctx, "ingested transcript",
		"source_origin", t.SourceOrigin, "source_id", t.SourceID,
		"title", t.Title, "chunks", len(chunks))

	return Result{ChunksWritten: committed}, nil
}

// IngestAll ingests many transcripts. Per-source failures are logged and
// skipped so one bad transcript cannot sink a batch run.
func (c *Coordinator) IngestAll(ctx context.Context, transcripts []transcript.Transcript) error {
	logger := contextutil.LoggerFromContext(ctx)

	var successCount, errorCount int
	for _, t := range transcripts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := c.Ingest(ctx, t); err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to ingest transcript",
				"source_origin", t.SourceOrigin, "source_id", t.SourceID, "error", err)
			continue
		}
		successCount++
	}

	logger.InfoContext(ctx, "ingestion completed",
		"total", len(transcripts), "success", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("ingestion completed with %d errors", errorCount)
	}
	return nil
}

func (c *Coordinator) buildRows(t transcript.Transcript, chunks []chunker.Chunk, embeddings [][]float32) []vectorstore.Row {
	ingestedAt := time.Now().UTC().Format(time.RFC3339)

	rows := make([]vectorstore.Row, len(chunks))
	for i, ch := range chunks {
		topics := make([]any, len(t.Topics))
		for j, topic := range t.Topics {
			topics[j] = topic
		}

		rows[i] = vectorstore.Row{
			ID:  uuid.New().String(),
			Vec: embeddings[i],
			Payload: map[string]any{
				"content":       ch.Content,
				"source_origin": t.SourceOrigin,
				"source_type":   "video",
				"source_id":     t.SourceID,
				"title":         t.Title,
				"url":           t.URL,
				"start_time":    ch.StartTime,
				"end_time":      ch.EndTime,
				"duration":      ch.EndTime - ch.StartTime,
				"chunk_index":   int64(ch.Index),
				"total_chunks":  int64(len(chunks)),
				"speaker":       t.Speaker.Name,
				"speaker_title": t.Speaker.Title,
				"description":   t.Description,
				"topics":        topics,
				"ingested_at":   ingestedAt,
			},
		}
	}
	return rows
}
