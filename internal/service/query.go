package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"llamabridge/internal/cache"
	"llamabridge/internal/llm"
	"llamabridge/internal/model"
	"llamabridge/internal/repository"
	"llamabridge/internal/vector"
)

var (
	ErrQuestionRequired = errors.New("question is required")
	ErrNoDocuments      = errors.New("no documents have been indexed")
)

// promptTemplate grounds the model's answer in retrieved chunks and tells
// it not to invent one when the context doesn't contain the answer.
const promptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: %s

Question: %s

Answer: `

// QueryService answers questions against the indexed documents.
// Retrieval and generation are separate so callers can report retrieval
// failures before a streamed response has started.
type QueryService interface {
	// Retrieve returns the most relevant chunks for a question, best first.
	Retrieve(ctx context.Context, question string) ([]model.ScoredChunk, error)

	// Generate streams the answer grounded in the retrieved chunks through
	// onToken, one token per call.
	Generate(ctx context.Context, question string, relevant []model.ScoredChunk, onToken func(token string) error) error
}

type queryService struct {
	chunks     repository.ChunkRepository
	embedder   llm.Embedder
	generator  llm.Generator
	cache      cache.EmbeddingCache
	embedModel string
	topK       int
	candidates int
}

// NewQueryService constructs a QueryService. embedModel namespaces cache
// entries so switching embedding models never serves stale vectors.
func NewQueryService(
	chunks repository.ChunkRepository,
	embedder llm.Embedder,
	generator llm.Generator,
	embedCache cache.EmbeddingCache,
	embedModel string,
	topK, candidateLimit int,
) QueryService {
	if embedCache == nil {
		embedCache = cache.Noop{}
	}
	return &queryService{
		chunks:     chunks,
		embedder:   embedder,
		generator:  generator,
		cache:      embedCache,
		embedModel: embedModel,
		topK:       topK,
		candidates: candidateLimit,
	}
}

func (s *queryService) Retrieve(ctx context.Context, question string) ([]model.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrQuestionRequired
	}

	qv, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	candidates, err := s.chunks.ListCandidates(ctx, s.candidates)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoDocuments
	}

	return vector.TopK(qv, candidates, s.topK), nil
}

func (s *queryService) Generate(ctx context.Context, question string, relevant []model.ScoredChunk, onToken func(token string) error) error {
	contexts := make([]string, len(relevant))
	for i, sc := range relevant {
		contexts[i] = sc.Chunk.Content
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(contexts, "\n\n"), strings.TrimSpace(question))

	if err := s.generator.Generate(ctx, prompt, onToken); err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}
	return nil
}

// embedQuestion goes through the cache; misses hit the embedder and are
// stored best-effort.
func (s *queryService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	if v, ok := s.cache.Get(ctx, s.embedModel, question); ok {
		return v, nil
	}
	v, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, s.embedModel, question, v)
	return v, nil
}
