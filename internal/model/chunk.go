package model

import "time"

// Chunk is a contiguous piece of a document's text along with its
// embedding vector. Chunks are what retrieval ranks and what grounds
// generated answers.
//
// Embedding is excluded from JSON: vectors are an internal representation
// and are never part of an API payload.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredChunk pairs a chunk with its similarity score against a query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
