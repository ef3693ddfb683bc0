package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/transport/http/response"
)

type ConfigHandler struct {
	configService *app.ConfigService
}

func NewConfigHandler(configService *app.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

type CreateConfigRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
	BaseURL  string `json:"base_url"`
	IsActive bool   `json:"is_active"`
}

type UpdateConfigRequest struct {
	ID       uint  `json:"id" binding:"required,gt=0"`
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to fetch configs")
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *ConfigHandler) Create(c *gin.Context) {
	var req CreateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	cfg, err := h.configService.Create(app.CreateConfigInput{
		Name:     req.Name,
		Type:     req.Type,
		Provider: req.Provider,
		Model:    req.Model,
		APIKey:   req.APIKey,
		BaseURL:  req.BaseURL,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to create config")
		}
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) Update(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	cfg, err := h.configService.SetActive(req.ID, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrConfigNotFound):
			response.Error(c, http.StatusNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to update config")
		}
		return
	}
	c.JSON(http.StatusOK, cfg)
}
