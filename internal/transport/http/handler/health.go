package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/secret-deus/RAG-Chat/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := gin.H{
		"database": h.checkMySQL(ctx),
		"cache":    h.checkRedis(ctx),
		"queue":    h.checkRabbitMQ(),
	}

	status := "healthy"
	statusCode := http.StatusOK
	for _, state := range services {
		if state != "connected" {
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(statusCode, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"services":   services,
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) string {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return "disconnected"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (h *HealthHandler) checkRabbitMQ() string {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return "disconnected"
	}
	return "connected"
}
