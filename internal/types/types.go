package types

import (
	"context"

	"github.com/xhad/docspace/internal/models"
)

// Embedder converts text into unit-length vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore persists documents and their chunk sets.
type DocumentStore interface {
	// CreateDocument stores doc and chunks in one transaction.
	CreateDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error
	// ReplaceChunks swaps the content, document embedding and whole chunk set of an
	// existing document in one transaction. Returns ErrNotFound for unknown ids.
	ReplaceChunks(ctx context.Context, id, content string, embedding []float32, chunks []models.Chunk) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.DocumentSummary, error)
	ListChunks(ctx context.Context, id string) ([]models.Chunk, error)
	DeleteDocument(ctx context.Context, id string) error
	// RecentChunkCandidates returns at most limit chunks of the newest documents.
	RecentChunkCandidates(ctx context.Context, limit int) ([]models.Candidate, error)
	// RecentDocuments returns at most limit documents, newest first, with content and embedding.
	RecentDocuments(ctx context.Context, limit int) ([]models.Document, error)
	Close() error
}
