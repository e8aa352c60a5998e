package rag

import (
	"context"
	"fmt"

	"founder-ai/internal/contextutil"
	"founder-ai/internal/llm"
	"founder-ai/internal/vectorstore"
)

const (
	// DefaultSimilarityThreshold is deliberately below ingestion-era
	// sanity levels to tolerate cross-lingual embedding drift.
	DefaultSimilarityThreshold = 0.30

	// DefaultRetrieveLimit over-fetches beyond the distinct-source count
	// surfaced as citations, because dedup collapses same-video chunks.
	DefaultRetrieveLimit = 8
)

// Embedder generates one fixed-dimension vector per input text, in order.
// llm.EmbeddingsClient implements it.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text completions. llm.Client implements it.
type Generator interface {
	Chat(ctx context.Context, message string) (string, error)
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Engine answers founder questions from the ingested transcript corpus.
type Engine interface {
	// Answer retrieves relevant chunks for the question and generates a
	// grounded, cited answer in the requested locale.
	Answer(ctx context.Context, req AskRequest) (AskResponse, error)
}

type ragEngine struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	generator   Generator
	threshold   float32
	limit       int
}

// NewEngine creates a query pipeline engine. threshold <= 0 and limit <= 0
// fall back to the defaults.
func NewEngine(
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	generator Generator,
	threshold float32,
	limit int,
) Engine {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		generator:   generator,
		threshold:   threshold,
		limit:       limit,
	}
}

// Answer runs the query pipeline: optional cross-lingual normalization,
// embed, retrieve, dedupe by source, assemble context, generate.
func (e *ragEngine) Answer(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Question == "" {
		return AskResponse{}, fmt.Errorf("empty question")
	}
	locale := normalizeLocale(req.Locale)

	logger.InfoContext(ctx, "query started", "question", req.Question, "locale", locale)

	// Cross-lingual questions are translated to the corpus language for
	// embedding only; the original question still drives the answer
	// prompt. Translation failure never blocks the pipeline.
	embedText := req.Question
	if needsTranslation(req.Question) {
		if translated, err := e.translateForEmbedding(ctx, req.Question); err != nil {
			logger.WarnContext(ctx, "translation failed, embedding original text", "error", err)
		} else if translated != "" {
			embedText = translated
			logger.DebugContext(ctx, "query translated for embedding", "translated", translated)
		}
	}

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{embedText})
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return AskResponse{}, fmt.Errorf("no embedding returned for question")
	}

	matches, err := e.vectorStore.Search(ctx, e.collection, embeddings[0], e.threshold, e.limit)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to search vector store: %w", err)
	}

	logger.InfoContext(ctx, "retrieval completed", "matches", len(matches))

	// Nothing above threshold: answer with the fixed no-content message
	// and never invoke the generator, so there is nothing to hallucinate
	// from.
	if len(matches) == 0 {
		return AskResponse{
			Answer:  noContentAnswer(locale),
			Sources: []Source{},
		}, nil
	}

	contextBlock := buildContext(matches)
	speaker := dominantSpeaker(matches)

	messages := buildAnswerPrompt(req.Question, contextBlock, speaker, locale)
	answer, err := e.generator.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0.7})
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	sources := formatSources(dedupeBySource(matches))

	logger.InfoContext(ctx, "query completed",
		"chunks_used", len(matches), "sources", len(sources), "answer_length", len(answer))

	return AskResponse{
		Answer:  answer,
		Sources: sources,
	}, nil
}

// dedupeBySource collapses multiple chunks from the same source video to
// the single highest-similarity chunk, preserving first-encounter order.
func dedupeBySource(matches []vectorstore.Match) []vectorstore.Match {
	bySource := make(map[string]int)
	deduped := make([]vectorstore.Match, 0, len(matches))

	for _, m := range matches {
		sourceID := payloadString(m.Payload, "source_id")
		if idx, seen := bySource[sourceID]; seen {
			if m.Similarity > deduped[idx].Similarity {
				deduped[idx] = m
			}
			continue
		}
		bySource[sourceID] = len(deduped)
		deduped = append(deduped, m)
	}

	return deduped
}

// formatSources converts deduplicated matches into citations.
func formatSources(matches []vectorstore.Match) []Source {
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		startTime := payloadFloat(m.Payload, "start_time")
		url := payloadString(m.Payload, "url")
		if url == "" {
			url = watchURL(payloadString(m.Payload, "source_id"), startTime)
		}
		sources = append(sources, Source{
			Title:     payloadString(m.Payload, "title"),
			URL:       url,
			Timestamp: startTime,
			Speaker:   payloadString(m.Payload, "speaker"),
		})
	}
	return sources
}

// watchURL builds a video link that jumps to the cited offset.
func watchURL(sourceID string, startTime float64) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", sourceID, int(startTime))
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
