package model

import "time"

const (
	CapabilityLLM       = "llm"
	CapabilityEmbedding = "embedding"
	CapabilityRerank    = "rerank"
)

// ProviderConfig describes one external provider credential for a
// capability type. At most one config per type is active at a time.
type ProviderConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Type      string    `gorm:"size:32;not null;index" json:"type"`
	Provider  string    `gorm:"size:64;not null" json:"provider"`
	Model     string    `gorm:"size:128;not null" json:"model"`
	APIKey    string    `gorm:"size:512;not null" json:"api_key"`
	BaseURL   string    `gorm:"size:512" json:"base_url"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCapability reports whether t is a known capability type.
func ValidCapability(t string) bool {
	switch t {
	case CapabilityLLM, CapabilityEmbedding, CapabilityRerank:
		return true
	}
	return false
}
