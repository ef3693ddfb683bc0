package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/repository"
)

func activeCountByType(t *testing.T, svc *ConfigService, capability string) int {
	t.Helper()
	configs, err := svc.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	count := 0
	for _, cfg := range configs {
		if cfg.Type == capability && cfg.IsActive {
			count++
		}
	}
	return count
}

func TestCreateActivationDeactivatesPeers(t *testing.T) {
	repo := repository.NewProviderConfigRepository(newTestDB(t))
	svc := NewConfigService(repo)

	first, err := svc.Create(CreateConfigInput{
		Name: "primary", Type: model.CapabilityLLM, Provider: "openai",
		Model: "gpt-4o", APIKey: "sk-first-0123456789", IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := svc.Create(CreateConfigInput{
		Name: "embedder", Type: model.CapabilityEmbedding, Provider: "openai",
		Model: "text-embedding-3-small", APIKey: "sk-embed-0123456789", IsActive: true,
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	second, err := svc.Create(CreateConfigInput{
		Name: "secondary", Type: model.CapabilityLLM, Provider: "deepseek",
		Model: "deepseek-chat", APIKey: "sk-second-0123456789", IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if got := activeCountByType(t, svc, model.CapabilityLLM); got != 1 {
		t.Fatalf("active llm configs = %d, want 1", got)
	}
	if got := activeCountByType(t, svc, model.CapabilityEmbedding); got != 1 {
		t.Fatalf("active embedding configs = %d, want 1", got)
	}

	// Reactivating the first must flip the second off.
	if _, err := svc.SetActive(first.ID, true); err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}
	if got := activeCountByType(t, svc, model.CapabilityLLM); got != 1 {
		t.Fatalf("active llm configs after reactivation = %d, want 1", got)
	}
	active, err := repo.GetActiveByType(model.CapabilityLLM)
	if err != nil {
		t.Fatalf("GetActiveByType() failed: %v", err)
	}
	if active == nil || active.ID != first.ID {
		t.Fatalf("active llm config = %+v, want id %d", active, first.ID)
	}

	// Deactivation leaves no active config of the type.
	if _, err := svc.SetActive(first.ID, false); err != nil {
		t.Fatalf("SetActive() failed: %v", err)
	}
	if got := activeCountByType(t, svc, model.CapabilityLLM); got != 0 {
		t.Fatalf("active llm configs after deactivation = %d, want 0", got)
	}
	_ = second
}

func TestCreateValidation(t *testing.T) {
	svc := NewConfigService(repository.NewProviderConfigRepository(newTestDB(t)))

	if _, err := svc.Create(CreateConfigInput{
		Type: model.CapabilityLLM, Provider: "openai", Model: "gpt-4o", APIKey: "sk-x",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing name: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create(CreateConfigInput{
		Name: "bad", Type: "vision", Provider: "openai", Model: "gpt-4o", APIKey: "sk-x",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown capability: err = %v, want ErrInvalidInput", err)
	}
}

func TestSetActiveMissingConfig(t *testing.T) {
	svc := NewConfigService(repository.NewProviderConfigRepository(newTestDB(t)))

	if _, err := svc.SetActive(42, true); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestListMasksAPIKeys(t *testing.T) {
	svc := NewConfigService(repository.NewProviderConfigRepository(newTestDB(t)))

	secret := "sk-super-secret-0123456789"
	if _, err := svc.Create(CreateConfigInput{
		Name: "masked", Type: model.CapabilityLLM, Provider: "openai",
		Model: "gpt-4o", APIKey: secret,
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	configs, err := svc.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("got %d configs, want 1", len(configs))
	}
	if configs[0].APIKey == secret {
		t.Fatal("api key returned unmasked")
	}
	if !strings.Contains(configs[0].APIKey, "*") {
		t.Fatalf("api key %q does not look masked", configs[0].APIKey)
	}
}
