package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llamabridge/internal/model"
)

func TestEncodeDecode(t *testing.T) {
	v := []float32{0.25, -1.5, 3.75, 0}

	encoded := Encode(v)
	assert.Len(t, encoded, 16)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Empty(t, Encode(nil))

	decoded, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeInvalidLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid encoded length")
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 2}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := []model.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Embedding: []float32{0, 1}},
		{ID: "c2", DocumentID: "d1", Ordinal: 1, Embedding: []float32{1, 0}},
		{ID: "c3", DocumentID: "d1", Ordinal: 2, Embedding: []float32{1, 1}},
		{ID: "c4", DocumentID: "d1", Ordinal: 3, Embedding: []float32{-1, 0}},
	}

	got := TopK(query, candidates, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].Chunk.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "c3", got[1].Chunk.ID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestTopKDeterministicTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := []model.Chunk{
		{ID: "b", DocumentID: "d2", Ordinal: 0, Embedding: []float32{1, 0}},
		{ID: "a", DocumentID: "d1", Ordinal: 1, Embedding: []float32{1, 0}},
		{ID: "c", DocumentID: "d1", Ordinal: 0, Embedding: []float32{1, 0}},
	}

	got := TopK(query, candidates, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].Chunk.ID)
	assert.Equal(t, "a", got[1].Chunk.ID)
	assert.Equal(t, "b", got[2].Chunk.ID)
}

func TestTopKBounds(t *testing.T) {
	query := []float32{1, 0}
	candidates := []model.Chunk{
		{ID: "c1", Embedding: []float32{1, 0}},
	}

	assert.Nil(t, TopK(query, nil, 4))
	assert.Nil(t, TopK(query, candidates, 0))
	assert.Len(t, TopK(query, candidates, 10), 1)
}

func TestTopKIgnoresMismatchedDimensions(t *testing.T) {
	query := []float32{1, 0}
	candidates := []model.Chunk{
		{ID: "good", Embedding: []float32{1, 0}},
		{ID: "bad", Embedding: []float32{1, 0, 0}},
	}

	got := TopK(query, candidates, 1)

	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Chunk.ID)
}
