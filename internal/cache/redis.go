package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"llamabridge/internal/config"
	"llamabridge/internal/vector"
)

// redisCache stores encoded vectors in Redis with a TTL.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and returns an EmbeddingCache backed by it.
// Connectivity is verified with a short ping so a misconfigured address
// fails at startup instead of degrading every query.
func NewRedis(cfg config.RedisConfig) (EmbeddingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisCache{
		client: client,
		ttl:    time.Duration(cfg.EmbedCacheTTLSec) * time.Second,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	b, err := c.client.Get(ctx, cacheKey(model, text)).Bytes()
	if err != nil {
		return nil, false
	}
	vec, err := vector.Decode(b)
	if err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *redisCache) Set(ctx context.Context, model, text string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	_ = c.client.Set(ctx, cacheKey(model, text), vector.Encode(vec), c.ttl).Err()
}

// cacheKey hashes model+text so keys stay bounded regardless of chunk size.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "llamabridge:embed:" + hex.EncodeToString(sum[:])
}
