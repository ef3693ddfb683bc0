package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/repository"
	"github.com/secret-deus/RAG-Chat/internal/vector"
)

type emptyRetriever struct{}

func (emptyRetriever) Query(context.Context, string, int) ([]vector.Result, error) {
	return nil, nil
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, model.ChatMessage) error { return nil }

// newChatRouter wires a chat route against a real service; llmBaseURL empty
// leaves no active llm config.
func newChatRouter(t *testing.T, llmBaseURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&model.ChatSession{}, &model.ChatMessage{}, &model.ProviderConfig{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if llmBaseURL != "" {
		if err := repository.NewProviderConfigRepository(db).Create(&model.ProviderConfig{
			Name: "test-llm", Type: model.CapabilityLLM, Provider: "openai",
			Model: "test-model", APIKey: "sk-test-0123456789", BaseURL: llmBaseURL, IsActive: true,
		}); err != nil {
			t.Fatalf("create llm config failed: %v", err)
		}
	}

	chatService := app.NewChatService(
		repository.NewChatSessionRepository(db),
		repository.NewChatMessageRepository(db),
		repository.NewProviderConfigRepository(db),
		emptyRetriever{},
		discardPublisher{},
		nil,
		4,
		zerolog.Nop(),
	)

	router := gin.New()
	router.POST("/chat", NewChatHandler(chatService).Stream)
	return router
}

func postChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// TestStreamEmitsErrorEventOnMidStreamFailure: once deltas have been
// flushed the status line is gone, so an upstream failure must terminate
// the stream with an explicit error event rather than a quiet done.
func TestStreamEmitsErrorEventOnMidStreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"partial"}}]}` + "\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	}))
	defer upstream.Close()

	w := postChat(newChatRouter(t, upstream.URL), `{"messages":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 once streaming began", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "data: partial") {
		t.Errorf("body %q missing the delta flushed before the failure", body)
	}
	if !strings.Contains(body, "event: error") {
		t.Errorf("body %q missing error event termination", body)
	}
	if strings.Contains(body, "event: done") {
		t.Errorf("body %q ends with done despite the failure", body)
	}
}

func TestStreamHappyPathEndsWithSourcesAndDone(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"hello"}}]}` + "\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer upstream.Close()

	w := postChat(newChatRouter(t, upstream.URL), `{"messages":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: sources") || !strings.Contains(body, "event: done") {
		t.Errorf("body %q missing sources/done termination", body)
	}
}

func TestStreamNoActiveConfigIsPlainJSON(t *testing.T) {
	w := postChat(newChatRouter(t, ""), `{"messages":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 before any delta", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON for pre-stream errors", ct)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Errorf("body %q missing error envelope", w.Body.String())
	}
}
