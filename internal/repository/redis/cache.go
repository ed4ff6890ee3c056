package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	embeddingCachePrefix = "embedding:"
	defaultEmbeddingTTL  = 24 * time.Hour
)

// EmbeddingCache caches query embeddings in Redis, keyed by model and text
type EmbeddingCache struct {
	client *Client
	model  string
	ttl    time.Duration
}

// NewEmbeddingCache creates a new embedding cache for one embedding model
func NewEmbeddingCache(client *Client, model string, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	return &EmbeddingCache{client: client, model: model, ttl: ttl}
}

func (c *EmbeddingCache) key(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(text))))
	return embeddingCachePrefix + c.model + ":" + hex.EncodeToString(sum[:])
}

// Get retrieves a cached embedding. A miss returns nil, nil.
func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, error) {
	data, err := c.client.rdb.Get(ctx, c.key(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return vec, nil
}

// Set caches the embedding of text
func (c *EmbeddingCache) Set(ctx context.Context, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return c.client.rdb.Set(ctx, c.key(text), data, c.ttl).Err()
}

// FlushAll removes all cached embeddings
func (c *EmbeddingCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := embeddingCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
