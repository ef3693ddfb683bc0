package app

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNoActiveLLMConfig       = errors.New("no active llm config")
	ErrNoActiveEmbeddingConfig = errors.New("no active embedding config")
	ErrSessionNotFound         = errors.New("chat session not found")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrConfigNotFound          = errors.New("provider config not found")
)
