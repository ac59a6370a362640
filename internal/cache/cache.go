package cache

import "context"

// EmbeddingCache stores embedding vectors keyed by the text they came
// from, so repeated questions skip the embedding round-trip.
//
// Implementations are best-effort: a failed lookup is a miss, a failed
// store is ignored. Retrieval must never fail because the cache did.
type EmbeddingCache interface {
	// Get returns the cached vector for (model, text), or ok=false on a miss.
	Get(ctx context.Context, model, text string) (vec []float32, ok bool)
	// Set stores the vector for (model, text).
	Set(ctx context.Context, model, text string, vec []float32)
}

// Noop is the disabled cache: every Get is a miss, every Set is dropped.
type Noop struct{}

func (Noop) Get(context.Context, string, string) ([]float32, bool) { return nil, false }
func (Noop) Set(context.Context, string, string, []float32)        {}
