package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/bootstrap"
	"github.com/secret-deus/RAG-Chat/internal/cache"
	"github.com/secret-deus/RAG-Chat/internal/platform/rabbitmq"
	"github.com/secret-deus/RAG-Chat/internal/repository"
	"github.com/secret-deus/RAG-Chat/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	sessionRepo := repository.NewChatSessionRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)
	configRepo := repository.NewProviderConfigRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)

	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		configRepo,
		app.VectorIndex,
		publisher,
		historyCache,
		app.Config.Retrieval.TopK,
		app.Logger,
	)
	configService := appsvc.NewConfigService(configRepo)
	knowledgeService := appsvc.NewKnowledgeService(docRepo, app.VectorIndex, app.Logger)

	healthHandler := handler.NewHealthHandler(app)
	sessionHandler := handler.NewSessionHandler(chatService)
	configHandler := handler.NewConfigHandler(configService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(chatService)

	router.GET("/health", healthHandler.Check)

	router.GET("/chat-sessions", sessionHandler.List)
	router.POST("/chat-sessions", sessionHandler.Create)
	router.DELETE("/chat-sessions/:id", sessionHandler.Delete)
	router.GET("/chat-sessions/:id/messages", sessionHandler.ListMessages)
	router.POST("/chat-sessions/:id/messages", sessionHandler.AppendMessage)

	router.GET("/configs", configHandler.List)
	router.POST("/configs", configHandler.Create)
	router.PUT("/configs", configHandler.Update)

	router.GET("/knowledge-base", knowledgeHandler.List)
	router.POST("/knowledge-base", knowledgeHandler.Upload)
	router.DELETE("/knowledge-base", knowledgeHandler.Delete)

	router.POST("/chat", chatHandler.Stream)

	return router
}
