package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/repository"
)

// MessagePersistWorker consumes chat turns published after a completed
// stream and writes them to the store. It is the error channel of the
// fire-and-forget persistence: failures are logged and Nack'd here instead
// of surfacing into an already-flushed chat response.
type MessagePersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.ChatMessageRepository
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessagePersistWorker(
	conn *amqp.Connection,
	repo *repository.ChatMessageRepository,
	queueName string,
	logger zerolog.Logger,
) *MessagePersistWorker {
	return &MessagePersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger.With().Str("component", "message_persist_worker").Logger(),
	}
}

func (w *MessagePersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var msg model.ChatMessage
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					w.logger.Error().Err(err).Msg("decode queued message failed")
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&msg); err != nil {
					w.logger.Error().Err(err).
						Uint("session_id", msg.SessionID).
						Str("role", msg.Role).
						Msg("persist queued message failed")
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *MessagePersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
