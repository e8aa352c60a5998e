package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"founder-ai/internal/llm"
	"founder-ai/internal/vectorstore"
	"founder-ai/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

type fakeEmbedder struct {
	lastTexts []string
	vector    []float32
	err       error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

// fakeGenerator replies from a queue, one response per call, and records
// every message list it sees.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     [][]llm.Message
}

func (f *fakeGenerator) Chat(ctx context.Context, message string) (string, error) {
	return f.ChatWithMessages(ctx, []llm.Message{{Role: "user", Content: message}}, llm.ChatParams{})
}

func (f *fakeGenerator) ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, messages)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func matchWith(similarity float32, payload map[string]any) vectorstore.Match {
	return vectorstore.Match{ID: fmt.Sprintf("id-%f", similarity), Similarity: similarity, Payload: payload}
}

func TestEngine_Answer_EmptyQuestion(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{}, nil, "transcripts", &fakeGenerator{}, 0, 0)
	if _, err := engine.Answer(context.Background(), AskRequest{Question: ""}); err == nil {
		t.Fatal("Answer() expected error for empty question, got nil")
	}
}

func TestEngine_Answer_NoMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), "transcripts", gomock.Any(), float32(0.30), 8).
		Return([]vectorstore.Match{}, nil)

	gen := &fakeGenerator{}
	engine := NewEngine(&fakeEmbedder{vector: []float32{1, 0}}, store, "transcripts", gen, 0, 0)

	resp, err := engine.Answer(context.Background(), AskRequest{Question: "What about scaling?"})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if resp.Answer != noContentAnswer("en") {
		t.Errorf("Answer = %q, want no-content message", resp.Answer)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil slice", resp.Sources)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator called %d times, want 0 when nothing retrieved", len(gen.calls))
	}
}

func TestEngine_Answer_NoMatchesKoreanLocale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), "transcripts", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)

	engine := NewEngine(&fakeEmbedder{vector: []float32{1, 0}}, store, "transcripts", &fakeGenerator{}, 0, 0)

	resp, err := engine.Answer(context.Background(), AskRequest{Question: "What about scaling?", Locale: "ko"})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if resp.Answer != noContentAnswer("ko") {
		t.Errorf("Answer = %q, want Korean no-content message", resp.Answer)
	}
}

func TestEngine_Answer_DedupesSourcesKeepingBest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	matches := []vectorstore.Match{
		matchWith(0.9, map[string]any{
			"source_id": "aaaaaaaaaaa", "title": "Video A", "content": "first",
			"start_time": 10.0, "speaker": "Jane Doe",
		}),
		matchWith(0.95, map[string]any{
			"source_id": "aaaaaaaaaaa", "title": "Video A", "content": "second",
			"start_time": 120.0, "speaker": "Jane Doe",
		}),
		matchWith(0.8, map[string]any{
			"source_id": "bbbbbbbbbbb", "title": "Video B", "content": "third",
			"start_time": 30.0, "speaker": "John Smith",
		}),
	}

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), "transcripts", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(matches, nil)

	gen := &fakeGenerator{responses: []string{"generated answer"}}
	engine := NewEngine(&fakeEmbedder{vector: []float32{1, 0}}, store, "transcripts", gen, 0, 0)

	resp, err := engine.Answer(context.Background(), AskRequest{Question: "How do I hire?"})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if resp.Answer != "generated answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2 after dedup", len(resp.Sources))
	}
	// Source A keeps the highest-similarity chunk's timestamp and comes
	// first because it was encountered first.
	if resp.Sources[0].Title != "Video A" || resp.Sources[0].Timestamp != 120 {
		t.Errorf("Sources[0] = %+v, want Video A at 120s", resp.Sources[0])
	}
	if resp.Sources[1].Title != "Video B" {
		t.Errorf("Sources[1] = %+v, want Video B", resp.Sources[1])
	}
	// No stored URL: a watch link pointing at the cited offset is built.
	wantURL := "https://www.youtube.com/watch?v=aaaaaaaaaaa&t=120s"
	if resp.Sources[0].URL != wantURL {
		t.Errorf("Sources[0].URL = %q, want %q", resp.Sources[0].URL, wantURL)
	}
}

func TestEngine_Answer_PromptCarriesPersonaAndContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	matches := []vectorstore.Match{
		matchWith(0.9, map[string]any{
			"source_id": "aaaaaaaaaaa", "title": "Video A", "content": "chunk one text",
			"speaker": "Jane Doe",
		}),
		matchWith(0.85, map[string]any{
			"source_id": "bbbbbbbbbbb", "title": "Video B", "content": "chunk two text",
			"speaker": "Jane Doe",
		}),
	}

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(matches, nil)

	gen := &fakeGenerator{responses: []string{"answer"}}
	engine := NewEngine(&fakeEmbedder{vector: []float32{1, 0}}, store, "transcripts", gen, 0, 0)

	if _, err := engine.Answer(context.Background(), AskRequest{Question: "How do I hire?", Locale: "ko"}); err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	if len(gen.calls) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.calls))
	}
	messages := gen.calls[0]
	if len(messages) != 2 || messages[0].Role != "system" || messages[1].Role != "user" {
		t.Fatalf("messages = %+v, want system+user pair", messages)
	}
	if !strings.Contains(messages[0].Content, "Jane Doe") {
		t.Errorf("system prompt %q does not bind the speaker persona", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, "Answer in Korean.") {
		t.Errorf("system prompt %q missing locale instruction", messages[0].Content)
	}
	if !strings.Contains(messages[1].Content, "How do I hire?") {
		t.Errorf("user message %q missing original question", messages[1].Content)
	}
	// Context blocks appear in retrieval rank order.
	first := strings.Index(messages[1].Content, "chunk one text")
	second := strings.Index(messages[1].Content, "chunk two text")
	if first == -1 || second == -1 || first > second {
		t.Errorf("user message does not carry chunks in rank order: %q", messages[1].Content)
	}
	if !strings.Contains(messages[1].Content, "[Source 1]") || !strings.Contains(messages[1].Content, "[Source 2]") {
		t.Errorf("user message missing source labels: %q", messages[1].Content)
	}
}

func TestEngine_Answer_TranslatesNonLatinQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.Match{
			matchWith(0.9, map[string]any{"source_id": "aaaaaaaaaaa", "title": "A", "content": "c"}),
		}, nil)

	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	gen := &fakeGenerator{responses: []string{"How do I find product market fit?", "answer"}}
	engine := NewEngine(embedder, store, "transcripts", gen, 0, 0)

	question := "제품 시장 적합성은 어떻게 찾나요?"
	if _, err := engine.Answer(context.Background(), AskRequest{Question: question, Locale: "ko"}); err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}

	if len(gen.calls) != 2 {
		t.Fatalf("generator called %d times, want 2 (translate + answer)", len(gen.calls))
	}
	// The embedding uses the translation, the answer prompt the original.
	if len(embedder.lastTexts) != 1 || embedder.lastTexts[0] != "How do I find product market fit?" {
		t.Errorf("embedded texts = %v, want the translation", embedder.lastTexts)
	}
	answerPrompt := gen.calls[1]
	if !strings.Contains(answerPrompt[1].Content, question) {
		t.Errorf("answer prompt lost the original question: %q", answerPrompt[1].Content)
	}
}

func TestEngine_Answer_TranslationFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]vectorstore.Match{
			matchWith(0.9, map[string]any{"source_id": "aaaaaaaaaaa", "title": "A", "content": "c"}),
		}, nil)

	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	gen := &fakeGenerator{
		responses: []string{"", "answer"},
		errs:      []error{errors.New("translator down"), nil},
	}
	engine := NewEngine(embedder, store, "transcripts", gen, 0, 0)

	question := "제품 시장 적합성은 어떻게 찾나요?"
	resp, err := engine.Answer(context.Background(), AskRequest{Question: question})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if resp.Answer != "answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	// Fallback: the original question text is embedded.
	if len(embedder.lastTexts) != 1 || embedder.lastTexts[0] != question {
		t.Errorf("embedded texts = %v, want original question", embedder.lastTexts)
	}
}

func TestEngine_Answer_SearchErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("qdrant down"))

	engine := NewEngine(&fakeEmbedder{vector: []float32{1, 0}}, store, "transcripts", &fakeGenerator{}, 0, 0)
	if _, err := engine.Answer(context.Background(), AskRequest{Question: "hi"}); err == nil {
		t.Fatal("Answer() expected error, got nil")
	}
}

func TestEngine_Answer_EmbedErrorPropagates(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{err: errors.New("embedder down")}, nil, "transcripts", &fakeGenerator{}, 0, 0)
	if _, err := engine.Answer(context.Background(), AskRequest{Question: "hi"}); err == nil {
		t.Fatal("Answer() expected error, got nil")
	}
}

// memoryStore is a tiny in-memory cosine-similarity store used for
// pipeline-level tests without a running Qdrant.
type memoryStore struct {
	rows []vectorstore.Row
}

func (m *memoryStore) Upsert(ctx context.Context, collection string, rows []vectorstore.Row) error {
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memoryStore) DeleteBySource(ctx context.Context, collection, sourceOrigin, sourceID string) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.Payload["source_origin"] == sourceOrigin && r.Payload["source_id"] == sourceID {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *memoryStore) Search(ctx context.Context, collection string, query []float32, threshold float32, limit int) ([]vectorstore.Match, error) {
	var matches []vectorstore.Match
	for _, r := range m.rows {
		sim := cosine(query, r.Vec)
		if sim < threshold {
			continue
		}
		matches = append(matches, vectorstore.Match{ID: r.ID, Similarity: sim, Payload: r.Payload})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *memoryStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	return nil
}

func (m *memoryStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func TestEngine_Answer_AgainstMemoryStore(t *testing.T) {
	store := &memoryStore{}
	err := store.Upsert(context.Background(), "transcripts", []vectorstore.Row{
		{
			ID:  "row-1",
			Vec: []float32{1, 0, 0},
			Payload: map[string]any{
				"source_id": "aaaaaaaaaaa", "source_origin": "founder-interviews",
				"title": "Hiring Talk", "content": "Hello world this is a test",
				"start_time": 0.0, "speaker": "Jane Doe",
			},
		},
		{
			ID:  "row-2",
			Vec: []float32{0, 1, 0},
			Payload: map[string]any{
				"source_id": "bbbbbbbbbbb", "source_origin": "founder-interviews",
				"title": "Unrelated", "content": "off topic entirely",
				"start_time": 50.0, "speaker": "John Smith",
			},
		},
	})
	if err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	// The query vector points at row-1; row-2 is orthogonal and falls
	// below the threshold.
	embedder := &fakeEmbedder{vector: []float32{0.9, 0.1, 0}}
	gen := &fakeGenerator{responses: []string{"grounded answer"}}
	engine := NewEngine(embedder, store, "transcripts", gen, 0.5, 8)

	resp, err := engine.Answer(context.Background(), AskRequest{Question: "What was the test about?"})
	if err != nil {
		t.Fatalf("Answer() unexpected error: %v", err)
	}
	if resp.Answer != "grounded answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(resp.Sources))
	}
	if resp.Sources[0].Title != "Hiring Talk" || resp.Sources[0].Timestamp != 0 {
		t.Errorf("Sources[0] = %+v", resp.Sources[0])
	}
}
