package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"founder-ai/internal/storage"
	storage_mocks "founder-ai/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func TestSourcesHandler_ListsCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage_mocks.NewMockTranscriptStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return([]*storage.TranscriptRecord{
		{
			SourceOrigin: "founder-interviews",
			SourceID:     "dQw4w9WgXcQ",
			Title:        "Scaling Lessons",
			SpeakerName:  "Jane Doe",
			Topics:       "scaling, hiring",
			SegmentCount: 42,
			ChunkCount:   7,
			IngestedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
	}, nil)

	handler := NewSourcesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp SourcesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(resp.Sources))
	}
	got := resp.Sources[0]
	if got.Title != "Scaling Lessons" || got.Speaker != "Jane Doe" {
		t.Errorf("source = %+v", got)
	}
	if len(got.Topics) != 2 || got.Topics[0] != "scaling" || got.Topics[1] != "hiring" {
		t.Errorf("Topics = %v, want [scaling hiring]", got.Topics)
	}
	if got.IngestedAt != "2026-08-30T12:00:00Z" {
		t.Errorf("IngestedAt = %q", got.IngestedAt)
	}
}

func TestSourcesHandler_EmptyCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage_mocks.NewMockTranscriptStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(nil, nil)

	handler := NewSourcesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp SourcesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil slice", resp.Sources)
	}
}

func TestSourcesHandler_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage_mocks.NewMockTranscriptStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("db locked"))

	handler := NewSourcesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSourcesHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewSourcesHandler(storage_mocks.NewMockTranscriptStore(ctrl))

	req := httptest.NewRequest(http.MethodPost, "/api/sources", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
