package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/secret-deus/RAG-Chat/internal/ai"
	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/repository"
	"github.com/secret-deus/RAG-Chat/internal/vector"
)

const (
	defaultRetrievalTopK = 4

	// defaultSessionTitle is the placeholder a session carries until its
	// first turn produces a generated title.
	defaultSessionTitle = "New Chat"
)

// Retriever is the read side of the vector index.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]vector.Result, error)
}

// AsyncMessagePublisher enqueues a chat turn for background persistence.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

// HistoryCache fronts message listings; any method may be skipped by
// passing a nil cache.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

// ChatService orchestrates a retrieval-augmented chat turn: resolve the
// active llm config, retrieve context for the newest user message, stream
// the completion, and enqueue both turns for persistence afterwards.
type ChatService struct {
	sessionRepo  *repository.ChatSessionRepository
	messageRepo  *repository.ChatMessageRepository
	configRepo   *repository.ProviderConfigRepository
	retriever    Retriever
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	llmClient    *ai.OpenAICompatibleClient
	topK         int
	logger       zerolog.Logger
}

func NewChatService(
	sessionRepo *repository.ChatSessionRepository,
	messageRepo *repository.ChatMessageRepository,
	configRepo *repository.ProviderConfigRepository,
	retriever Retriever,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	topK int,
	logger zerolog.Logger,
) *ChatService {
	if topK <= 0 {
		topK = defaultRetrievalTopK
	}
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		configRepo:   configRepo,
		retriever:    retriever,
		publisher:    publisher,
		historyCache: historyCache,
		llmClient:    ai.NewOpenAICompatibleClient(),
		topK:         topK,
		logger:       logger.With().Str("component", "chat_service").Logger(),
	}
}

func (s *ChatService) CreateSession(title string) (*model.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}
	session := &model.ChatSession{Title: title}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions() ([]model.ChatSession, error) {
	return s.sessionRepo.List()
}

// DeleteSession removes a session together with its messages and drops any
// cached history for it.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID uint) error {
	if sessionID == 0 {
		return ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if err := s.sessionRepo.Delete(sessionID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	return nil
}

type AppendMessageInput struct {
	SessionID uint
	Role      string
	Content   string
	Reasoning string
	Metadata  map[string]interface{}
}

// AppendMessage writes a message synchronously, for callers appending turns
// directly rather than through the chat stream.
func (s *ChatService) AppendMessage(ctx context.Context, input AppendMessageInput) (*model.ChatMessage, error) {
	if input.SessionID == 0 || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidInput
	}
	if input.Role != model.RoleUser && input.Role != model.RoleAssistant {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	message := &model.ChatMessage{
		SessionID: input.SessionID,
		Role:      input.Role,
		Content:   input.Content,
		Reasoning: input.Reasoning,
		CreatedAt: time.Now(),
	}
	message.SetMetadata(input.Metadata)
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, input.SessionID)
	}
	return message, nil
}

// ListMessages returns a session's messages oldest first, served from the
// history cache when it is populated and clean.
func (s *ChatService) ListMessages(ctx context.Context, sessionID uint) ([]model.ChatMessage, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

type TurnInput struct {
	// SessionID of 0 streams without persisting either turn.
	SessionID uint
	Messages  []ai.ChatMessage
}

type TurnResult struct {
	Content   string   `json:"content"`
	Reasoning string   `json:"reasoning,omitempty"`
	Sources   []string `json:"sources"`
}

// StreamTurn runs one retrieval-augmented turn. onDelta is invoked for each
// streamed fragment; both turns are enqueued for persistence only after the
// stream has completed, and the sources recorded on the assistant message
// are exactly the ones whose chunks built the context. A session's first
// turn also generates a title for it. A cancelled ctx aborts the upstream
// stream and skips persistence entirely.
func (s *ChatService) StreamTurn(ctx context.Context, input TurnInput, onDelta func(ai.StreamDelta) error) (*TurnResult, error) {
	userContent, err := latestUserMessage(input.Messages)
	if err != nil {
		return nil, err
	}
	var session *model.ChatSession
	if input.SessionID != 0 {
		session, err = s.sessionRepo.GetByID(input.SessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
	}

	llmCfg, err := s.resolveActiveLLM()
	if err != nil {
		return nil, err
	}

	hits, err := s.retriever.Query(ctx, userContent, s.topK)
	if err != nil {
		return nil, err
	}
	contextBlock, sources := assembleContext(hits)

	promptMessages := make([]ai.ChatMessage, 0, len(input.Messages)+1)
	promptMessages = append(promptMessages, ai.ChatMessage{
		Role:    "system",
		Content: buildSystemPrompt(contextBlock),
	})
	promptMessages = append(promptMessages, input.Messages...)

	result, err := s.llmClient.StreamComplete(ctx, llmCfg, promptMessages, onDelta)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(result.Content)
	if content == "" {
		content = "The model returned an empty response."
	}

	if input.SessionID != 0 {
		// Decide before publishing: once the queued turns land, the count
		// no longer tells first turns apart.
		firstTurn := false
		if session.Title == defaultSessionTitle {
			if count, countErr := s.messageRepo.CountBySessionID(input.SessionID); countErr == nil && count == 0 {
				firstTurn = true
			}
		}
		s.persistTurn(input.SessionID, userContent, content, result.Reasoning, sources)
		if firstTurn {
			s.titleSession(input.SessionID, llmCfg, userContent)
		}
	}

	return &TurnResult{
		Content:   content,
		Reasoning: result.Reasoning,
		Sources:   sources,
	}, nil
}

// persistTurn enqueues both turns after the stream has been flushed to the
// caller. Failures here are logged, never returned: the response is already
// delivered and must not be corrupted or delayed by persistence.
func (s *ChatService) persistTurn(sessionID uint, userContent, assistantContent, reasoning string, sources []string) {
	ctx := context.Background()

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}

	now := time.Now()
	userMessage := model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   userContent,
		CreatedAt: now,
	}
	if err := s.publisher.Publish(ctx, userMessage); err != nil {
		s.logger.Error().Err(err).Uint("session_id", sessionID).
			Msg("enqueue user message failed")
		return
	}

	assistantMessage := model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   assistantContent,
		Reasoning: reasoning,
		CreatedAt: now.Add(time.Millisecond),
	}
	assistantMessage.SetSources(sources)
	if err := s.publisher.Publish(ctx, assistantMessage); err != nil {
		s.logger.Error().Err(err).Uint("session_id", sessionID).
			Msg("enqueue assistant message failed")
	}
}

// titleSession replaces the placeholder title with a short model-generated
// one after a session's first turn. Best effort: on failure the placeholder
// stays and is never retried.
func (s *ChatService) titleSession(sessionID uint, cfg ai.ChatConfig, userContent string) {
	title, err := s.llmClient.Complete(context.Background(), cfg, []ai.ChatMessage{
		{Role: "system", Content: "Generate a short title, at most six words, for a conversation " +
			"that starts with the user message below. Reply with the title only."},
		{Role: model.RoleUser, Content: userContent},
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("session_id", sessionID).
			Msg("generate session title failed")
		return
	}

	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return
	}
	if runes := []rune(title); len(runes) > 128 {
		title = string(runes[:128])
	}
	if err := s.sessionRepo.UpdateTitle(sessionID, title); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", sessionID).
			Msg("update session title failed")
	}
}

func (s *ChatService) resolveActiveLLM() (ai.ChatConfig, error) {
	cfg, err := s.configRepo.GetActiveByType(model.CapabilityLLM)
	if err != nil {
		return ai.ChatConfig{}, err
	}
	if cfg == nil {
		return ai.ChatConfig{}, ErrNoActiveLLMConfig
	}
	return ai.ChatConfig{
		BaseURL: baseURLOrDefault(cfg.BaseURL),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	}, nil
}

func latestUserMessage(messages []ai.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrInvalidInput
	}
	last := messages[len(messages)-1]
	content := strings.TrimSpace(last.Content)
	if last.Role != model.RoleUser || content == "" {
		return "", ErrInvalidInput
	}
	return content, nil
}

// assembleContext joins the retrieved chunk texts in retrieval-rank order
// and collects the de-duplicated contributing document ids, preserving
// first-seen order.
func assembleContext(hits []vector.Result) (string, []string) {
	var parts []string
	sources := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if hit.Text != "" {
			parts = append(parts, hit.Text)
		}
		if _, ok := seen[hit.DocumentID]; ok {
			continue
		}
		seen[hit.DocumentID] = struct{}{}
		sources = append(sources, hit.DocumentID)
	}
	return strings.Join(parts, "\n\n"), sources
}

func buildSystemPrompt(contextBlock string) string {
	return "You are a helpful assistant. Use the following context to answer questions. " +
		"If the context doesn't contain relevant information, say so clearly.\n\n" +
		"Context:\n" + contextBlock + "\n\n" +
		"Instructions:\n" +
		"- Answer based on the provided context\n" +
		"- If the context is insufficient, acknowledge this limitation\n" +
		"- Be concise and accurate\n" +
		"- When referencing information, cite the source using [Source ID] format"
}
