// Package vector holds the embedding-vector primitives used by retrieval:
// a compact binary codec for persisting vectors in PostgreSQL BYTEA
// columns, cosine similarity, and top-k ranking over candidate chunks.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"llamabridge/internal/model"
)

// Encode serializes a float32 vector as little-endian bytes for storage.
// Encode(nil) returns an empty slice.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// Decode is the inverse of Encode. It rejects byte strings whose length is
// not a multiple of 4.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid encoded length %d", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Mismatched dimensions and zero vectors score 0, so malformed
// candidates never outrank real ones.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK ranks candidates against query by cosine similarity and returns the
// k best, highest score first. Ties keep (document_id, ordinal) order so
// results are deterministic.
func TopK(query []float32, candidates []model.Chunk, k int) []model.ScoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := make([]model.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, model.ScoredChunk{
			Chunk: c,
			Score: CosineSimilarity(query, c.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.DocumentID != scored[j].Chunk.DocumentID {
			return scored[i].Chunk.DocumentID < scored[j].Chunk.DocumentID
		}
		return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
