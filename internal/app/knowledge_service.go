package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/secret-deus/RAG-Chat/internal/model"
	"github.com/secret-deus/RAG-Chat/internal/pkg/textsplit"
	"github.com/secret-deus/RAG-Chat/internal/repository"
)

// Indexer is the vector-side lifecycle of a document's chunks.
type Indexer interface {
	Index(ctx context.Context, documentID, content string) error
	Remove(ctx context.Context, documentID string) error
}

type KnowledgeService struct {
	docRepo *repository.DocumentRepository
	index   Indexer
	logger  zerolog.Logger
}

func NewKnowledgeService(docRepo *repository.DocumentRepository, index Indexer, logger zerolog.Logger) *KnowledgeService {
	return &KnowledgeService{
		docRepo: docRepo,
		index:   index,
		logger:  logger.With().Str("component", "knowledge_service").Logger(),
	}
}

type CreateDocumentInput struct {
	Name        string
	Description string
	FileName    string
	FileSize    int64
	Content     string
}

func (s *KnowledgeService) List() ([]model.Document, error) {
	return s.docRepo.List()
}

// Create persists the document with its sentence chunks and then indexes
// the same chunks into the vector store. An indexing failure leaves the
// already-persisted row in place and is reported to the caller.
func (s *KnowledgeService) Create(ctx context.Context, input CreateDocumentInput) (*model.Document, error) {
	name := strings.TrimSpace(input.Name)
	content := strings.TrimSpace(input.Content)
	if name == "" || content == "" {
		return nil, ErrInvalidInput
	}

	chunks := textsplit.Sentences(content)
	if len(chunks) == 0 {
		return nil, ErrInvalidInput
	}

	doc := &model.Document{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		FileName:    input.FileName,
		FileSize:    input.FileSize,
		Content:     content,
	}
	doc.SetChunks(chunks)
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	if err := s.index.Index(ctx, DocumentID(doc.ID), content); err != nil {
		s.logger.Error().Err(err).Uint("document_id", doc.ID).
			Msg("document persisted but indexing failed")
		return nil, fmt.Errorf("index document failed: %w", err)
	}

	return doc, nil
}

// Delete removes the document's indexed chunks first and only then the row.
// If the vector-side delete fails the row is kept, so a retry converges and
// the index can never hold chunks for a document the store no longer knows.
func (s *KnowledgeService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.index.Remove(ctx, DocumentID(doc.ID)); err != nil {
		return fmt.Errorf("remove document vectors failed: %w", err)
	}
	return s.docRepo.Delete(doc.ID)
}

// DocumentID is the external string form of a document's primary key, used
// for chunk ids and source citations.
func DocumentID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
