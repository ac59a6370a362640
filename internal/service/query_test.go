package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	cacheMocks "llamabridge/internal/cache/mocks"
	llmMocks "llamabridge/internal/llm/mocks"
	"llamabridge/internal/model"
	repoMocks "llamabridge/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testEmbedModel = "nomic-embed-text"

func TestQueryService_Retrieve(t *testing.T) {
	ctx := context.Background()

	candidates := []model.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Content: "about cats", Embedding: []float32{1, 0}},
		{ID: "c2", DocumentID: "d1", Ordinal: 1, Content: "about dogs", Embedding: []float32{0, 1}},
		{ID: "c3", DocumentID: "d1", Ordinal: 2, Content: "about both", Embedding: []float32{1, 1}},
	}

	t.Run("ranks candidates by similarity", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		mEmbed := new(llmMocks.MockEmbedder)
		svc := NewQueryService(mChunks, mEmbed, nil, nil, testEmbedModel, 2, 100)

		mEmbed.On("Embed", ctx, "cats?").Return([]float32{1, 0}, nil)
		mChunks.On("ListCandidates", ctx, 100).Return(candidates, nil)

		got, err := svc.Retrieve(ctx, "cats?")

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "c1", got[0].Chunk.ID)
		assert.Equal(t, "c3", got[1].Chunk.ID)
		assert.Greater(t, got[0].Score, got[1].Score)
		mChunks.AssertExpectations(t)
		mEmbed.AssertExpectations(t)
	})

	t.Run("empty question", func(t *testing.T) {
		svc := NewQueryService(nil, nil, nil, nil, testEmbedModel, 4, 100)

		_, err := svc.Retrieve(ctx, "   ")

		assert.ErrorIs(t, err, ErrQuestionRequired)
	})

	t.Run("no indexed chunks", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		mEmbed := new(llmMocks.MockEmbedder)
		svc := NewQueryService(mChunks, mEmbed, nil, nil, testEmbedModel, 4, 100)

		mEmbed.On("Embed", ctx, "anything").Return([]float32{1}, nil)
		mChunks.On("ListCandidates", ctx, 100).Return([]model.Chunk{}, nil)

		_, err := svc.Retrieve(ctx, "anything")

		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("embedder error", func(t *testing.T) {
		mEmbed := new(llmMocks.MockEmbedder)
		svc := NewQueryService(nil, mEmbed, nil, nil, testEmbedModel, 4, 100)

		mEmbed.On("Embed", ctx, "q").Return(nil, errors.New("ollama down"))

		_, err := svc.Retrieve(ctx, "q")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed question: ollama down")
	})

	t.Run("repository error", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		mEmbed := new(llmMocks.MockEmbedder)
		svc := NewQueryService(mChunks, mEmbed, nil, nil, testEmbedModel, 4, 100)

		mEmbed.On("Embed", ctx, "q").Return([]float32{1}, nil)
		mChunks.On("ListCandidates", ctx, 100).Return(nil, errors.New("db fail"))

		_, err := svc.Retrieve(ctx, "q")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load candidates: db fail")
	})
}

func TestQueryService_RetrieveUsesCache(t *testing.T) {
	ctx := context.Background()

	candidates := []model.Chunk{
		{ID: "c1", Content: "text", Embedding: []float32{1, 0}},
	}

	t.Run("cache hit skips embedder", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		mEmbed := new(llmMocks.MockEmbedder)
		mCache := new(cacheMocks.MockEmbeddingCache)
		svc := NewQueryService(mChunks, mEmbed, nil, mCache, testEmbedModel, 4, 100)

		mCache.On("Get", ctx, testEmbedModel, "cached question").Return([]float32{1, 0}, true)
		mChunks.On("ListCandidates", ctx, 100).Return(candidates, nil)

		got, err := svc.Retrieve(ctx, "cached question")

		require.NoError(t, err)
		assert.Len(t, got, 1)
		mEmbed.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
		mCache.AssertExpectations(t)
	})

	t.Run("cache miss stores the new vector", func(t *testing.T) {
		mChunks := new(repoMocks.MockChunkRepository)
		mEmbed := new(llmMocks.MockEmbedder)
		mCache := new(cacheMocks.MockEmbeddingCache)
		svc := NewQueryService(mChunks, mEmbed, nil, mCache, testEmbedModel, 4, 100)

		mCache.On("Get", ctx, testEmbedModel, "new question").Return(nil, false)
		mEmbed.On("Embed", ctx, "new question").Return([]float32{1, 0}, nil)
		mCache.On("Set", ctx, testEmbedModel, "new question", []float32{1, 0}).Return()
		mChunks.On("ListCandidates", ctx, 100).Return(candidates, nil)

		_, err := svc.Retrieve(ctx, "new question")

		require.NoError(t, err)
		mCache.AssertExpectations(t)
		mEmbed.AssertExpectations(t)
	})
}

func TestQueryService_Generate(t *testing.T) {
	ctx := context.Background()

	relevant := []model.ScoredChunk{
		{Chunk: model.Chunk{ID: "c1", DocumentID: "d1", Ordinal: 0, Content: "llamas are camelids"}, Score: 0.99},
		{Chunk: model.Chunk{ID: "c2", DocumentID: "d1", Ordinal: 1, Content: "alpacas are smaller"}, Score: 0.91},
	}

	t.Run("streams tokens with grounded prompt", func(t *testing.T) {
		mGen := new(llmMocks.MockGenerator)
		svc := NewQueryService(nil, nil, mGen, nil, testEmbedModel, 2, 100)

		mGen.On("Generate", ctx, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "llamas are camelids") &&
				strings.Contains(prompt, "alpacas are smaller") &&
				strings.Contains(prompt, "Question: what are llamas?") &&
				strings.Contains(prompt, "don't know")
		}), mock.Anything).Return(llmMocks.GeneratorCall{Tokens: []string{"They", " are", " camelids"}}, nil)

		var tokens []string
		err := svc.Generate(ctx, "what are llamas?", relevant, func(tok string) error {
			tokens = append(tokens, tok)
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"They", " are", " camelids"}, tokens)
		mGen.AssertExpectations(t)
	})

	t.Run("generator error is wrapped", func(t *testing.T) {
		mGen := new(llmMocks.MockGenerator)
		svc := NewQueryService(nil, nil, mGen, nil, testEmbedModel, 2, 100)

		mGen.On("Generate", ctx, mock.Anything, mock.Anything).
			Return(nil, errors.New("model crashed"))

		err := svc.Generate(ctx, "q", relevant, func(string) error { return nil })

		require.Error(t, err)
		assert.Contains(t, err.Error(), "generate answer: model crashed")
	})
}
