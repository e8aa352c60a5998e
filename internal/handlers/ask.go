package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"founder-ai/internal/contextutil"
	"founder-ai/internal/llm"
	"founder-ai/internal/rag"
)

// AskHandler handles HTTP requests for founder Q&A queries.
type AskHandler struct {
	ragEngine   rag.Engine
	debugErrors bool
}

// NewAskHandler creates a new AskHandler. debugErrors includes underlying
// error details in 5xx responses; keep it off outside local development.
func NewAskHandler(ragEngine rag.Engine, debugErrors bool) *AskHandler {
	return &AskHandler{
		ragEngine:   ragEngine,
		debugErrors: debugErrors,
	}
}

// AskRequest represents the HTTP request payload for founder Q&A queries.
// This mirrors rag.AskRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Message string `json:"message"`
	Locale  string `json:"locale,omitempty"`
}

// AskResponse represents the HTTP response payload for founder Q&A queries.
type AskResponse struct {
	// The generated answer, grounded in transcript content
	Answer string `json:"answer"`

	// Deduplicated source citations backing the answer
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse represents one citation in the HTTP response.
type SourceResponse struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Timestamp float64 `json:"timestamp"`
	Speaker   string  `json:"speaker,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for founder Q&A queries.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		logger.WarnContext(ctx, "empty message in request")
		h.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	ragResp, err := h.ragEngine.Answer(ctx, rag.AskRequest{
		Question: req.Message,
		Locale:   req.Locale,
	})
	if err != nil {
		// Model API throttling is surfaced as a friendly answer, not an
		// error status, so chat clients can render it inline.
		if llm.IsRateLimited(err) {
			logger.WarnContext(ctx, "model API rate limited", "error", err)
			h.writeJSON(w, http.StatusOK, AskResponse{
				Answer:  throttledAnswer(req.Locale),
				Sources: []SourceResponse{},
			})
			return
		}
		h.handleEngineError(w, r, err)
		return
	}

	sources := make([]SourceResponse, len(ragResp.Sources))
	for i, s := range ragResp.Sources {
		sources[i] = SourceResponse{
			Title:     s.Title,
			URL:       s.URL,
			Timestamp: s.Timestamp,
			Speaker:   s.Speaker,
		}
	}

	h.writeJSON(w, http.StatusOK, AskResponse{
		Answer:  ragResp.Answer,
		Sources: sources,
	})
}

// handleEngineError maps query pipeline errors to HTTP status codes.
func (h *AskHandler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "query pipeline error", "error", err)

	status := http.StatusInternalServerError
	message := "Failed to process question"

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "failed to search"):
		status = http.StatusServiceUnavailable
		message = "Vector store unavailable"
	case strings.Contains(errMsg, "embed"), strings.Contains(errMsg, "generate"):
		status = http.StatusBadGateway
		message = "Model API error"
	}

	if h.debugErrors {
		message = message + ": " + err.Error()
	}
	h.writeError(w, status, message)
}

// throttledAnswer is shown in place of an answer when the model API
// rejects the request for rate limiting.
func throttledAnswer(locale string) string {
	if locale == "ko" {
		return "지금 요청이 많아 답변을 생성하지 못했습니다. 잠시 후 다시 시도해 주세요."
	}
	return "I'm receiving too many requests right now. Please try again in a moment."
}

// writeJSON writes a JSON response with the given status code.
func (h *AskHandler) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func (h *AskHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
