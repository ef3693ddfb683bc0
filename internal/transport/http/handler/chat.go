package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/secret-deus/RAG-Chat/internal/ai"
	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatRequest struct {
	SessionID uint              `json:"session_id"`
	Messages  []ChatMessageBody `json:"messages" binding:"required"`
}

type ChatMessageBody struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Stream runs one retrieval-augmented chat turn as an SSE stream. Errors
// raised before the first delta (validation, missing active config) are
// plain JSON responses; once the stream has started, failures terminate it
// with an explicit error event instead of silently truncating.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "stream not supported")
		return
	}

	messages := make([]ai.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = ai.ChatMessage{Role: m.Role, Content: m.Content}
	}

	streaming := false
	writeEvent := func(event, data string) {
		if !streaming {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			streaming = true
		}
		if event != "" {
			_, _ = c.Writer.Write([]byte("event: " + event + "\n"))
		}
		_, _ = c.Writer.Write([]byte("data: " + data + "\n\n"))
		flusher.Flush()
	}

	result, err := h.chatService.StreamTurn(c.Request.Context(), app.TurnInput{
		SessionID: req.SessionID,
		Messages:  messages,
	}, func(delta ai.StreamDelta) error {
		if delta.Reasoning != "" {
			writeEvent("reasoning", sanitizeSSE(delta.Reasoning))
		}
		if delta.Content != "" {
			writeEvent("", sanitizeSSE(delta.Content))
		}
		return nil
	})
	if err != nil {
		if !streaming {
			switch {
			case errors.Is(err, app.ErrNoActiveLLMConfig), errors.Is(err, app.ErrInvalidInput):
				response.Error(c, http.StatusBadRequest, err.Error())
			case errors.Is(err, app.ErrSessionNotFound):
				response.Error(c, http.StatusNotFound, err.Error())
			default:
				response.Error(c, http.StatusInternalServerError, "Internal server error")
			}
			return
		}
		writeEvent("error", sanitizeSSE(err.Error()))
		return
	}

	sourcesJSON, _ := json.Marshal(result.Sources)
	writeEvent("sources", string(sourcesJSON))
	writeEvent("done", sanitizeSSE(result.Content))
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
