package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/transport/http/response"
)

type SessionHandler struct {
	chatService *app.ChatService
}

func NewSessionHandler(chatService *app.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

type CreateSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
}

type AppendMessageRequest struct {
	Role      string                 `json:"role" binding:"required"`
	Content   string                 `json:"content" binding:"required"`
	Reasoning string                 `json:"reasoning"`
	Metadata  map[string]interface{} `json:"metadata"`
}

func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.chatService.ListSessions()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.CreateSession(req.Title)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to create session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) ListMessages(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid session id")
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to fetch messages")
		}
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *SessionHandler) AppendMessage(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid session id")
		return
	}

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	message, err := h.chatService.AppendMessage(c.Request.Context(), app.AppendMessageInput{
		SessionID: sessionID,
		Role:      req.Role,
		Content:   req.Content,
		Reasoning: req.Reasoning,
		Metadata:  req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to create message")
		}
		return
	}
	c.JSON(http.StatusOK, message)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.chatService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to delete session")
		}
		return
	}
	response.Success(c)
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	u, err := strconv.ParseUint(c.Param(key), 10, 64)
	return uint(u), err
}
