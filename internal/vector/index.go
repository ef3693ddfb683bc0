package vector

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/secret-deus/RAG-Chat/internal/pkg/textsplit"
)

// UnknownDocumentID is reported for hits whose metadata lost the owning
// document id; retrieval never fails over missing metadata.
const UnknownDocumentID = "unknown"

const defaultTopK = 4

// EmbeddingFunc produces the vector for a piece of text. Embedding
// generation is delegated to the active embedding provider.
type EmbeddingFunc = chromem.EmbeddingFunc

// Result is one retrieved chunk.
type Result struct {
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// Index wraps a chromem-go collection keyed by chunk ids of the form
// <documentID>-<ordinal>, with the owning document id kept in metadata.
type Index struct {
	collection *chromem.Collection
	topK       int
}

// New opens (or creates) the collection. An empty path keeps the index
// in memory, which the tests rely on.
func New(path, collectionName string, topK int, embed EmbeddingFunc) (*Index, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db failed: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open vector collection failed: %w", err)
	}

	if topK <= 0 {
		topK = defaultTopK
	}
	return &Index{collection: collection, topK: topK}, nil
}

// Index splits content with the shared sentence splitter and upserts one
// entry per chunk.
func (ix *Index) Index(ctx context.Context, documentID, content string) error {
	chunks := textsplit.Sentences(content)
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s-%d", documentID, i),
			Content: chunk,
			Metadata: map[string]string{
				"document_id": documentID,
				"text":        chunk,
			},
		}
	}

	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("index document chunks failed: %w", err)
	}
	return nil
}

// Query returns up to k nearest chunks for text. k falls back to the
// configured default and is clamped to the collection size, since chromem
// rejects a result count larger than the number of stored entries.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = ix.topK
	}
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	hits, err := ix.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		docID := hit.Metadata["document_id"]
		if docID == "" {
			docID = UnknownDocumentID
		}
		chunkText := hit.Metadata["text"]
		if chunkText == "" {
			chunkText = hit.Content
		}
		results = append(results, Result{
			DocumentID: docID,
			Text:       chunkText,
			Score:      hit.Similarity,
		})
	}
	return results, nil
}

// Remove deletes every chunk whose metadata names documentID; a document
// with no indexed chunks is a no-op.
func (ix *Index) Remove(ctx context.Context, documentID string) error {
	err := ix.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil)
	if err != nil {
		return fmt.Errorf("remove document chunks failed: %w", err)
	}
	return nil
}

// Count reports the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.collection.Count()
}
