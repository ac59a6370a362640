package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"llamabridge/internal/ingest"
	"llamabridge/internal/llm"
	"llamabridge/internal/model"
	"llamabridge/internal/repository"
	"llamabridge/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload ingests a document: raw bytes go to object storage, the text is
	// extracted, chunked and embedded, and chunks land in the database.
	// Storage is rolled back if the database writes fail.
	// - originalFilename selects the extractor and names the stored object
	//   (UUID + original extension); the original name is kept as metadata.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document by ID from both storage and repository.
	// Its chunks are removed by the database cascade.
	Delete(ctx context.Context, id string) error

	// DownloadURL returns a presigned URL for the raw uploaded file.
	DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	chunkRepo repository.ChunkRepository
	embedder  llm.Embedder
	splitter  *ingest.Splitter
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	embedder llm.Embedder,
	splitter *ingest.Splitter,
) DocumentService {
	return &documentService{
		store:     store,
		repo:      repo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		splitter:  splitter,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	// The content is read twice (extraction and upload), so buffer it once.
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	// Fail fast on unsupported or empty files before touching storage.
	text, err := ingest.ExtractText(bytes.NewReader(content), originalFilename)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	parts := s.splitter.Split(text)
	if len(parts) == 0 {
		return nil, fmt.Errorf("extract text: %w", ingest.ErrEmptyDocument)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	// Generate filename using UUID + extension
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", genName))

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          uuid.New().String(),
		Filename:    genName,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		ChunkCount:  len(parts),
		CreatedAt:   now,
	}

	chunks := make([]model.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = model.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    part,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, s.rollbackObject(ctx, key, fmt.Errorf("db save failed: %w", err))
	}

	if _, err := s.chunkRepo.InsertBatch(ctx, chunks); err != nil {
		// Remove the half-indexed document row as well as the object.
		if delErr := s.repo.Delete(ctx, doc.ID); delErr != nil {
			return nil, fmt.Errorf("chunk save failed: %v; rollback document failed: %v", err, delErr)
		}
		return nil, s.rollbackObject(ctx, key, fmt.Errorf("chunk save failed: %w", err))
	}

	return stored, nil
}

// rollbackObject deletes the stored object after a failed ingest and
// reports both errors if the rollback itself fails.
func (s *documentService) rollbackObject(ctx context.Context, key string, cause error) error {
	if delErr := s.store.Delete(ctx, key); delErr != nil {
		return fmt.Errorf("%v; rollback delete failed: %v", cause, delErr)
	}
	return cause
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// The denormalized chunk_count column can go stale after a partial
	// rollback; the chunks table is authoritative.
	if n, err := s.chunkRepo.CountByDocument(ctx, doc.ID); err == nil {
		doc.ChunkCount = n
	}
	return doc, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	// Find the document to get its storage path
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// Delete DB row; chunks cascade with it
	return s.repo.Delete(ctx, id)
}

// DownloadURL returns a presigned GET URL for the raw object.
func (s *documentService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	url, err := s.store.PresignGet(ctx, doc.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}
