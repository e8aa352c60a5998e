package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"founder-ai/internal/contextutil"
	"founder-ai/internal/storage"
)

// SourcesHandler lists the ingested transcript catalog.
type SourcesHandler struct {
	transcriptRepo storage.TranscriptStore
}

// NewSourcesHandler creates a new SourcesHandler.
func NewSourcesHandler(transcriptRepo storage.TranscriptStore) *SourcesHandler {
	return &SourcesHandler{transcriptRepo: transcriptRepo}
}

// TranscriptSummary is one catalog entry in the sources listing.
type TranscriptSummary struct {
	SourceOrigin string   `json:"source_origin"`
	SourceID     string   `json:"source_id"`
	Title        string   `json:"title"`
	URL          string   `json:"url,omitempty"`
	Speaker      string   `json:"speaker,omitempty"`
	SpeakerTitle string   `json:"speaker_title,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	SegmentCount int      `json:"segment_count"`
	ChunkCount   int      `json:"chunk_count"`
	IngestedAt   string   `json:"ingested_at"`
}

// SourcesResponse represents the sources listing response.
type SourcesResponse struct {
	Sources []TranscriptSummary `json:"sources"`
}

// ServeHTTP handles HTTP requests for the transcript catalog listing.
func (h *SourcesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	records, err := h.transcriptRepo.ListAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list transcripts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list sources")
		return
	}

	sources := make([]TranscriptSummary, 0, len(records))
	for _, rec := range records {
		sources = append(sources, TranscriptSummary{
			SourceOrigin: rec.SourceOrigin,
			SourceID:     rec.SourceID,
			Title:        rec.Title,
			URL:          rec.URL,
			Speaker:      rec.SpeakerName,
			SpeakerTitle: rec.SpeakerTitle,
			Topics:       splitTopics(rec.Topics),
			SegmentCount: rec.SegmentCount,
			ChunkCount:   rec.ChunkCount,
			IngestedAt:   rec.IngestedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SourcesResponse{Sources: sources}); err != nil {
		logger.ErrorContext(ctx, "failed to encode sources response", "error", err)
	}
}

// splitTopics reverses the comma-joined topic storage format.
func splitTopics(topics string) []string {
	if topics == "" {
		return nil
	}
	parts := strings.Split(topics, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeError writes an error response.
func (h *SourcesHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
