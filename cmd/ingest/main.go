package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"founder-ai/internal/chunker"
	"founder-ai/internal/config"
	"founder-ai/internal/ingest"
	"founder-ai/internal/llm"
	"founder-ai/internal/storage"
	"founder-ai/internal/transcript"
	"founder-ai/internal/vectorstore"
)

func main() {
	manifestPath := flag.String("manifest", "ingest.yaml", "path to the YAML ingestion manifest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	manifest, err := ingest.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	transcriptRepo := storage.NewTranscriptRepo(db)

	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	embedder.BatchSize = cfg.EmbedBatchSize
	embedder.BatchDelay = cfg.EmbedBatchDelay

	coordinator := ingest.NewCoordinator(
		chunker.New(cfg.ChunkTokenBudget, cfg.ChunkOverlapSegments),
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		transcriptRepo,
		cfg.InsertBatchSize,
	)

	normalizer := transcript.NewNormalizer()

	bar := progressbar.Default(int64(manifest.FileCount()), "ingesting")

	var successCount, errorCount int
	for _, collection := range manifest.Collections {
		for _, path := range collection.Files {
			raw, err := os.ReadFile(path)
			if err != nil {
				errorCount++
				slog.Error("failed to read transcript file", "path", path, "error", err)
				_ = bar.Add(1)
				continue
			}

			fileName := filepath.Base(path)
			t := normalizer.Normalize(string(raw), fileName)
			t.SourceOrigin = collection.SourceOrigin
			if t.Title == "" {
				t.Title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
			}

			if _, err := coordinator.Ingest(ctx, t); err != nil {
				errorCount++
				slog.Error("failed to ingest transcript",
					"path", path, "source_origin", t.SourceOrigin, "source_id", t.SourceID, "error", err)
				_ = bar.Add(1)
				continue
			}

			successCount++
			_ = bar.Add(1)
		}
	}

	slog.Info("ingestion run finished",
		"total", manifest.FileCount(), "success", successCount, "errors", errorCount)
	if errorCount > 0 {
		os.Exit(1)
	}
}
