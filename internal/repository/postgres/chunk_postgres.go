package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"llamabridge/internal/model"
	"llamabridge/internal/repository"
	"llamabridge/internal/vector"
)

// ChunkPostgres is a PostgreSQL implementation of repository.ChunkRepository.
// Embeddings are stored in a BYTEA column through the vector codec.
type ChunkPostgres struct {
	db *sql.DB
}

// NewChunkPostgres creates a new ChunkPostgres repository.
func NewChunkPostgres(db *sql.DB) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

var _ repository.ChunkRepository = (*ChunkPostgres)(nil)

// InsertBatch inserts all chunks in a single transaction so a document is
// never indexed partially.
func (r *ChunkPostgres) InsertBatch(ctx context.Context, chunks []model.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO chunks (id, document_id, ordinal, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID,
			c.DocumentID,
			c.Ordinal,
			c.Content,
			vector.Encode(c.Embedding),
			c.CreatedAt,
		); err != nil {
			return 0, fmt.Errorf("insert chunk %d: %w", c.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(chunks), nil
}

// ListCandidates returns chunks for ranking, newest documents first.
func (r *ChunkPostgres) ListCandidates(ctx context.Context, limit int) ([]model.Chunk, error) {
	const q = `
		SELECT id, document_id, ordinal, content, embedding, created_at
		FROM chunks
		ORDER BY created_at DESC, document_id DESC, ordinal ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chunks := make([]model.Chunk, 0)
	for rows.Next() {
		var c model.Chunk
		var encoded []byte
		if err := rows.Scan(
			&c.ID,
			&c.DocumentID,
			&c.Ordinal,
			&c.Content,
			&encoded,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		c.Embedding, err = vector.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// CountByDocument returns how many chunks a document has.
func (r *ChunkPostgres) CountByDocument(ctx context.Context, documentID string) (int, error) {
	const q = `SELECT COUNT(*) FROM chunks WHERE document_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, q, documentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
