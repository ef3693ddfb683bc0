package model

import (
	"encoding/json"
	"time"
)

// Document is an uploaded knowledge-base entry. The sentence chunks are
// stored alongside the full content as a JSON array so the row and the
// vector index always describe the same split.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	FileName    string    `gorm:"size:256;not null" json:"file_name"`
	FileSize    int64     `gorm:"not null" json:"file_size"`
	Content     string    `gorm:"type:longtext;not null" json:"content"`
	Chunks      string    `gorm:"type:longtext" json:"-"` // JSON array of strings
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChunkList returns the parsed chunk slice; empty on parse error.
func (d *Document) ChunkList() []string {
	if d.Chunks == "" {
		return nil
	}
	var chunks []string
	_ = json.Unmarshal([]byte(d.Chunks), &chunks)
	return chunks
}

// SetChunks stores the chunk slice as JSON.
func (d *Document) SetChunks(chunks []string) {
	if len(chunks) == 0 {
		d.Chunks = "[]"
		return
	}
	b, _ := json.Marshal(chunks)
	d.Chunks = string(b)
}
