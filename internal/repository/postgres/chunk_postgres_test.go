package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"llamabridge/internal/model"
	"llamabridge/internal/vector"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chunkColumns = []string{"id", "document_id", "ordinal", "content", "embedding", "created_at"}

func TestChunkPostgres_InsertBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewChunkPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	chunks := []model.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Content: "first", Embedding: []float32{1, 0}, CreatedAt: now},
		{ID: "c2", DocumentID: "d1", Ordinal: 1, Content: "second", Embedding: []float32{0, 1}, CreatedAt: now},
	}

	mock.ExpectBegin()
	stmt := mock.ExpectPrepare("INSERT INTO chunks")
	stmt.ExpectExec().
		WithArgs("c1", "d1", 0, "first", vector.Encode([]float32{1, 0}), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	stmt.ExpectExec().
		WithArgs("c2", "d1", 1, "second", vector.Encode([]float32{0, 1}), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.InsertBatch(ctx, chunks)

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkPostgres_InsertBatchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewChunkPostgres(db)

	n, err := repo.InsertBatch(context.Background(), nil)

	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkPostgres_InsertBatchRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewChunkPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	chunks := []model.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Content: "first", Embedding: []float32{1}, CreatedAt: now},
	}

	mock.ExpectBegin()
	stmt := mock.ExpectPrepare("INSERT INTO chunks")
	stmt.ExpectExec().WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err = repo.InsertBatch(ctx, chunks)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert chunk 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkPostgres_ListCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewChunkPostgres(db)
	ctx := context.Background()

	t.Run("decodes embeddings", func(t *testing.T) {
		rows := sqlmock.NewRows(chunkColumns).
			AddRow("c1", "d1", 0, "some text", vector.Encode([]float32{0.5, -0.5}), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM chunks ORDER BY").
			WithArgs(100).
			WillReturnRows(rows)

		chunks, err := repo.ListCandidates(ctx, 100)

		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, []float32{0.5, -0.5}, chunks[0].Embedding)
		assert.Equal(t, "some text", chunks[0].Content)
	})

	t.Run("corrupt embedding", func(t *testing.T) {
		rows := sqlmock.NewRows(chunkColumns).
			AddRow("c1", "d1", 0, "some text", []byte{1, 2, 3}, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM chunks ORDER BY").
			WithArgs(100).
			WillReturnRows(rows)

		_, err := repo.ListCandidates(ctx, 100)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid encoded length")
	})
}

func TestChunkPostgres_CountByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewChunkPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM chunks WHERE document_id = ?").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByDocument(context.Background(), "d1")

	assert.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
