package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/pkg/pdfextract"
	"github.com/secret-deus/RAG-Chat/internal/transport/http/response"
)

type KnowledgeHandler struct {
	knowledgeService *app.KnowledgeService
	maxUploadBytes   int64
}

func NewKnowledgeHandler(knowledgeService *app.KnowledgeService, maxUploadBytes int64) *KnowledgeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &KnowledgeHandler{
		knowledgeService: knowledgeService,
		maxUploadBytes:   maxUploadBytes,
	}
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	docs, err := h.knowledgeService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch knowledge base")
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Upload accepts a multipart form with "file", "name" and optional
// "description". PDF uploads are converted to plain text; everything else
// is treated as UTF-8 text.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	name := strings.TrimSpace(c.PostForm("name"))
	if err != nil || name == "" {
		response.Error(c, http.StatusBadRequest, "File and name are required")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest, "file too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	var content string
	if strings.ToLower(filepath.Ext(file.Filename)) == ".pdf" {
		content, err = pdfextract.ExtractText(f)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "failed to extract text from PDF")
			return
		}
	} else {
		raw, readErr := io.ReadAll(f)
		if readErr != nil {
			response.Error(c, http.StatusInternalServerError, "failed to read file")
			return
		}
		content = string(raw)
	}

	doc, err := h.knowledgeService.Create(c.Request.Context(), app.CreateDocumentInput{
		Name:        name,
		Description: c.PostForm("description"),
		FileName:    file.Filename,
		FileSize:    file.Size,
		Content:     content,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to create knowledge base entry")
		}
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		response.Error(c, http.StatusBadRequest, "ID is required")
		return
	}
	id64, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.knowledgeService.Delete(c.Request.Context(), uint(id64)); err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to delete knowledge base entry")
		}
		return
	}
	response.Success(c)
}
