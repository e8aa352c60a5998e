package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8080", client.BaseURL)
	}
	if client.Model != "test-model" {
		t.Errorf("NewClient() Model = %v, want test-model", client.Model)
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	tests := []struct {
		name       string
		messages   []Message
		params     ChatParams
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		want       string
		wantErr    bool
		wantRate   bool
	}{
		{
			name: "successful completion",
			messages: []Message{
				{Role: "system", Content: "You are helpful."},
				{Role: "user", Content: "Hello"},
			},
			params: ChatParams{Temperature: 0.7},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if len(req.Messages) != 2 {
					t.Errorf("expected 2 messages, got %d", len(req.Messages))
				}
				if req.Model != "test-model" {
					t.Errorf("expected model test-model, got %s", req.Model)
				}

				resp := ChatResponse{
					Choices: []ChatChoice{
						{Message: Message{Role: "assistant", Content: "Hi there"}},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			want: "Hi there",
		},
		{
			name:     "model override",
			messages: []Message{{Role: "user", Content: "Hello"}},
			params:   ChatParams{Model: "other-model"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Model != "other-model" {
					t.Errorf("expected model other-model, got %s", req.Model)
				}
				resp := ChatResponse{
					Choices: []ChatChoice{{Message: Message{Content: "ok"}}},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			want: "ok",
		},
		{
			name:     "rate limited",
			messages: []Message{{Role: "user", Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr:  true,
			wantRate: true,
		},
		{
			name:     "server error",
			messages: []Message{{Role: "user", Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("boom"))
			},
			wantErr: true,
		},
		{
			name:     "no choices",
			messages: []Message{{Role: "user", Content: "Hello"}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			got, err := client.ChatWithMessages(context.Background(), tt.messages, tt.params)

			if tt.wantErr {
				if err == nil {
					t.Fatal("ChatWithMessages() expected error, got nil")
				}
				if tt.wantRate && !IsRateLimited(err) {
					t.Errorf("ChatWithMessages() error = %v, want rate limit sentinel", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChatWithMessages() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ChatWithMessages() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected single user message, got %+v", req.Messages)
		}
		resp := ChatResponse{
			Choices: []ChatChoice{{Message: Message{Content: "reply"}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	got, err := client.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat() unexpected error: %v", err)
	}
	if got != "reply" {
		t.Errorf("Chat() = %q, want reply", got)
	}
}
