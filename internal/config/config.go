package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbedBatchSize     int
	EmbedBatchDelay    time.Duration

	QdrantURL        string
	QdrantCollection string
	VectorSize       int

	DBPath string

	ChunkTokenBudget     int
	ChunkOverlapSegments int

	SimilarityThreshold float32
	RetrieveLimit       int
	InsertBatchSize     int

	APIPort     string
	DebugErrors bool
	LogLevel    slog.Level
	LogFormat   string
}

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it
// is loaded automatically; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // current directory first

	// Walk up a few levels looking for a .env next to the module root.
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "nomic-embed-text"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "transcripts"),
		DBPath:             getEnv("DB_PATH", "./data/founder-ai.db"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		DebugErrors:        getEnvBool("DEBUG_ERRORS", false),
	}

	// The stored-row schema is fixed-dimension; the default matches the
	// 768-dim embedding models the corpus was indexed with.
	cfg.VectorSize, err = getEnvInt("VECTOR_SIZE", 768)
	if err != nil {
		return nil, err
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}

	if cfg.EmbedBatchSize, err = getEnvInt("EMBED_BATCH_SIZE", 32); err != nil {
		return nil, err
	}
	delayMs, err := getEnvInt("EMBED_BATCH_DELAY_MS", 200)
	if err != nil {
		return nil, err
	}
	cfg.EmbedBatchDelay = time.Duration(delayMs) * time.Millisecond

	if cfg.ChunkTokenBudget, err = getEnvInt("CHUNK_TOKEN_BUDGET", 300); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlapSegments, err = getEnvInt("CHUNK_OVERLAP_SEGMENTS", 2); err != nil {
		return nil, err
	}

	// Query-time threshold defaults lower than an ingestion-time sanity
	// threshold would, to tolerate cross-lingual embedding drift.
	threshold, err := getEnvFloat("SIMILARITY_THRESHOLD", 0.30)
	if err != nil {
		return nil, err
	}
	cfg.SimilarityThreshold = float32(threshold)

	if cfg.RetrieveLimit, err = getEnvInt("RETRIEVE_LIMIT", 8); err != nil {
		return nil, err
	}
	if cfg.InsertBatchSize, err = getEnvInt("INSERT_BATCH_SIZE", 50); err != nil {
		return nil, err
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "TRUE"
}
