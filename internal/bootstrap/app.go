package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/secret-deus/RAG-Chat/internal/ai"
	"github.com/secret-deus/RAG-Chat/internal/app"
	"github.com/secret-deus/RAG-Chat/internal/config"
	"github.com/secret-deus/RAG-Chat/internal/model"
	mysqlClient "github.com/secret-deus/RAG-Chat/internal/platform/mysql"
	rabbitmqClient "github.com/secret-deus/RAG-Chat/internal/platform/rabbitmq"
	redisClient "github.com/secret-deus/RAG-Chat/internal/platform/redis"
	"github.com/secret-deus/RAG-Chat/internal/repository"
	"github.com/secret-deus/RAG-Chat/internal/vector"
	"github.com/secret-deus/RAG-Chat/internal/worker"
)

type App struct {
	Config        *config.Config
	Logger        zerolog.Logger
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	VectorIndex   *vector.Index
	MessageWorker *worker.MessagePersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("app", cfg.App.Name).
		Logger()
	if cfg.App.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.ProviderConfig{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	configRepo := repository.NewProviderConfigRepository(mysqlDB)
	embedFunc := app.ActiveEmbeddingFunc(configRepo, ai.NewOpenAICompatibleClient())
	vectorIndex, err := vector.New(cfg.Vector.Path, cfg.Vector.Collection, cfg.Retrieval.TopK, embedFunc)
	if err != nil {
		return nil, err
	}

	messageRepo := repository.NewChatMessageRepository(mysqlDB)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue, logger)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		VectorIndex:   vectorIndex,
		MessageWorker: messageWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
