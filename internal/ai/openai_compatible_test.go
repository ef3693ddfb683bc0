package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n\n"))
		}
	}))
}

func TestCompleteParsesMessageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"four"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test", Model: "test-model"}

	got, err := client.Complete(context.Background(), cfg, []ChatMessage{{Role: "user", Content: "2+2?"}})
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if got != "four" {
		t.Errorf("content = %q, want %q", got, "four")
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test", Model: "test-model"}

	_, err := client.Complete(context.Background(), cfg, []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for non-2xx upstream status")
	}
}

func TestStreamCompleteAccumulatesContentAndReasoning(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"reasoning_content":"thinking "}}]}`,
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test", Model: "test-model"}

	var deltas []StreamDelta
	result, err := client.StreamComplete(context.Background(), cfg,
		[]ChatMessage{{Role: "user", Content: "hi"}},
		func(d StreamDelta) error {
			deltas = append(deltas, d)
			return nil
		})
	if err != nil {
		t.Fatalf("StreamComplete() failed: %v", err)
	}
	if result.Content != "Hello world" {
		t.Errorf("content = %q, want %q", result.Content, "Hello world")
	}
	if result.Reasoning != "thinking " {
		t.Errorf("reasoning = %q, want %q", result.Reasoning, "thinking ")
	}
	if len(deltas) != 3 {
		t.Errorf("got %d deltas, want 3", len(deltas))
	}
}

func TestStreamCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test", Model: "missing"}

	_, err := client.StreamComplete(context.Background(), cfg, nil, func(StreamDelta) error { return nil })
	if err == nil {
		t.Fatal("expected error for non-2xx upstream status")
	}
}

func TestStreamCompleteCallbackErrorAborts(t *testing.T) {
	srv := sseServer(t, []string{
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: srv.URL, APIKey: "test", Model: "test-model"}

	wantErr := context.Canceled
	_, err := client.StreamComplete(context.Background(), cfg, nil, func(StreamDelta) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
