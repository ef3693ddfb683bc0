package app

import (
	"context"
	"strings"

	"github.com/secret-deus/RAG-Chat/internal/ai"
	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/repository"
	"github.com/secret-deus/RAG-Chat/internal/vector"
)

// defaultProviderBaseURL is used when a config row leaves the base URL
// override empty.
const defaultProviderBaseURL = "https://api.openai.com/v1"

type ConfigService struct {
	repo *repository.ProviderConfigRepository
}

func NewConfigService(repo *repository.ProviderConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

type CreateConfigInput struct {
	Name     string
	Type     string
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	IsActive bool
}

// List returns all configs in creation order with credentials masked.
func (s *ConfigService) List() ([]model.ProviderConfig, error) {
	configs, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	for i := range configs {
		configs[i].APIKey = maskSecret(configs[i].APIKey)
	}
	return configs, nil
}

func (s *ConfigService) Create(input CreateConfigInput) (*model.ProviderConfig, error) {
	name := strings.TrimSpace(input.Name)
	capability := strings.TrimSpace(input.Type)
	provider := strings.TrimSpace(input.Provider)
	modelID := strings.TrimSpace(input.Model)
	apiKey := strings.TrimSpace(input.APIKey)
	if name == "" || provider == "" || modelID == "" || apiKey == "" {
		return nil, ErrInvalidInput
	}
	if !model.ValidCapability(capability) {
		return nil, ErrInvalidInput
	}

	cfg := &model.ProviderConfig{
		Name:     name,
		Type:     capability,
		Provider: provider,
		Model:    modelID,
		APIKey:   apiKey,
		BaseURL:  strings.TrimSpace(input.BaseURL),
		IsActive: input.IsActive,
	}
	if err := s.repo.Create(cfg); err != nil {
		return nil, err
	}

	masked := *cfg
	masked.APIKey = maskSecret(masked.APIKey)
	return &masked, nil
}

func (s *ConfigService) SetActive(id uint, isActive bool) (*model.ProviderConfig, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	updated, err := s.repo.SetActive(id, isActive)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrConfigNotFound
	}

	masked := *updated
	masked.APIKey = maskSecret(masked.APIKey)
	return &masked, nil
}

// ActiveEmbeddingFunc builds the vector index's embedding function. The
// active embedding config is resolved on every call, so switching providers
// takes effect without a restart.
func ActiveEmbeddingFunc(repo *repository.ProviderConfigRepository, client *ai.OpenAICompatibleClient) vector.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		cfg, err := repo.GetActiveByType(model.CapabilityEmbedding)
		if err != nil {
			return nil, err
		}
		if cfg == nil {
			return nil, ErrNoActiveEmbeddingConfig
		}
		return client.Embed(ctx, ai.EmbeddingConfig{
			BaseURL: baseURLOrDefault(cfg.BaseURL),
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		}, text)
	}
}

func baseURLOrDefault(baseURL string) string {
	if strings.TrimSpace(baseURL) == "" {
		return defaultProviderBaseURL
	}
	return baseURL
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
