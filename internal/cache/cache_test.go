package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableCache returns a redisCache whose client points at a port
// nothing listens on, for exercising the degraded paths.
func unreachableCache() *redisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	return &redisCache{client: client, ttl: time.Minute}
}

func TestRedisCache_SoftFailures(t *testing.T) {
	ctx := context.Background()
	c := unreachableCache()

	t.Run("get treats connection errors as a miss", func(t *testing.T) {
		vec, ok := c.Get(ctx, "nomic-embed-text", "what are llamas?")
		assert.False(t, ok)
		assert.Nil(t, vec)
	})

	t.Run("set swallows connection errors", func(t *testing.T) {
		assert.NotPanics(t, func() {
			c.Set(ctx, "nomic-embed-text", "what are llamas?", []float32{1, 2, 3})
		})
	})

	t.Run("set drops empty vectors without touching redis", func(t *testing.T) {
		assert.NotPanics(t, func() {
			c.Set(ctx, "nomic-embed-text", "anything", nil)
		})
	})
}

func TestCacheKey(t *testing.T) {
	k1 := cacheKey("nomic-embed-text", "what are llamas?")
	k2 := cacheKey("all-minilm", "what are llamas?")
	k3 := cacheKey("nomic-embed-text", "what are alpacas?")

	assert.True(t, strings.HasPrefix(k1, "llamabridge:embed:"))

	// The model namespaces the key, so switching embedding models never
	// serves a vector from the old model.
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	// Deterministic for identical inputs.
	assert.Equal(t, k1, cacheKey("nomic-embed-text", "what are llamas?"))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c EmbeddingCache = Noop{}

	vec, ok := c.Get(ctx, "m", "t")
	assert.False(t, ok)
	assert.Nil(t, vec)

	assert.NotPanics(t, func() {
		c.Set(ctx, "m", "t", []float32{1})
	})
}
