package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a session. Metadata is a JSON object column;
// assistant turns use it to carry the cited source document ids.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Reasoning string    `gorm:"type:text" json:"reasoning,omitempty"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MetadataMap returns the parsed metadata object; nil when absent or invalid.
func (m *ChatMessage) MetadataMap() map[string]interface{} {
	if m.Metadata == "" {
		return nil
	}
	var out map[string]interface{}
	_ = json.Unmarshal([]byte(m.Metadata), &out)
	return out
}

// SetMetadata stores the metadata object as JSON.
func (m *ChatMessage) SetMetadata(meta map[string]interface{}) {
	if len(meta) == 0 {
		m.Metadata = ""
		return
	}
	b, _ := json.Marshal(meta)
	m.Metadata = string(b)
}

// SetSources records the cited document ids under the "sources" key.
func (m *ChatMessage) SetSources(sources []string) {
	m.SetMetadata(map[string]interface{}{"sources": sources})
}
