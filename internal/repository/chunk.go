package repository

import (
	"context"

	"llamabridge/internal/model"
)

// ChunkRepository defines data access for document chunks and their
// embeddings. SQL only; ranking happens in the service layer.
type ChunkRepository interface {
	// InsertBatch inserts chunks in one transaction and returns the number inserted.
	InsertBatch(ctx context.Context, chunks []model.Chunk) (int, error)

	// ListCandidates returns up to limit chunks with content and embedding,
	// newest documents first, for similarity ranking.
	ListCandidates(ctx context.Context, limit int) ([]model.Chunk, error)

	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
