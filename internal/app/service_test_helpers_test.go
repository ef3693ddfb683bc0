package app

import (
	"context"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/secret-deus/RAG-Chat/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Document{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.ProviderConfig{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

// recordingPublisher collects published messages instead of enqueueing them.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg model.ChatMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) published() []model.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ChatMessage(nil), p.messages...)
}

// sseLLMServer emits a fixed completion as an OpenAI-compatible SSE stream.
func sseLLMServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"` + chunk + `"}}]}` + "\n\n"))
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
}

// dualModeLLMServer serves streamed requests from chunks and non-streamed
// ones (the title generation path) with completion.
func dualModeLLMServer(t *testing.T, chunks []string, completion string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"stream":true`) {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, chunk := range chunks {
				_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"` + chunk + `"}}]}` + "\n\n"))
			}
			_, _ = w.Write([]byte("data: [DONE]\n\n"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + completion + `"}}]}`))
	}))
}

// wordHashEmbedding is a deterministic bag-of-words embedding so tests run
// without a hosted embedding provider.
func wordHashEmbedding(_ context.Context, text string) ([]float32, error) {
	const dim = 64
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
