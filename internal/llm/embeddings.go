package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBatchSize bounds how many texts go into one embeddings call.
	DefaultBatchSize = 32

	// DefaultBatchDelay is the pause between sequential batch calls,
	// a cheap way to stay under external rate limits.
	DefaultBatchDelay = 200 * time.Millisecond

	// DefaultMaxAttempts is how often a rate-limited batch is retried
	// before the whole call fails.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the first backoff delay; it doubles on
	// every further attempt.
	DefaultRetryBaseDelay = time.Second
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
// It batches inputs, paces sequential calls, and retries rate-limited
// batches with exponential backoff. Any other failure propagates
// immediately and aborts the whole call; no item is ever silently dropped.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // vector dimensionality every result is validated against

	BatchSize      int
	BatchDelay     time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration

	client *http.Client
}

// NewEmbeddingsClient creates a new embeddings client. expectedSize is the
// vector dimensionality of the model (the stored-row schema is fixed at
// 768); every returned vector is validated against it.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		Model:          model,
		ExpectedSize:   expectedSize,
		BatchSize:      DefaultBatchSize,
		BatchDelay:     DefaultBatchDelay,
		MaxAttempts:    DefaultMaxAttempts,
		RetryBaseDelay: DefaultRetryBaseDelay,
		client:         http.DefaultClient,
	}
}

// EmbeddingsRequest represents the request payload for the embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts generates embeddings for the given texts, preserving input
// order: one vector per input text.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if start > 0 && c.BatchDelay > 0 {
			if err := sleepCtx(ctx, c.BatchDelay); err != nil {
				return nil, err
			}
		}

		vectors, err := c.embedBatchWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}

	return result, nil
}

// embedBatchWithRetry retries a batch only when the failure is a
// rate-limit signal, backing off exponentially between attempts.
func (c *EmbeddingsClient) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := c.RetryBaseDelay
	if delay <= 0 {
		delay = DefaultRetryBaseDelay
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}

		vectors, err := c.embedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		if !IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("embeddings batch: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	result := make([][]float32, len(embeddingsResp.Data))
	for i, data := range embeddingsResp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}

// IsRateLimited reports whether err carries the rate-limit sentinel.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
