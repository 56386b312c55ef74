package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache stores vectors keyed by a descriptor hash.
type EmbeddingCache interface {
	// GetMany returns one entry per key; misses are nil.
	GetMany(ctx context.Context, keys []string) ([][]float32, error)
	SetMany(ctx context.Context, keys []string, values [][]float32) error
	Close() error
}

type redisEmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisEmbeddingCache wraps an existing client.
func NewRedisEmbeddingCache(client *redis.Client, ttl time.Duration, prefix string) (EmbeddingCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = 240 * time.Hour // 10 days
	}
	if prefix == "" {
		prefix = "emb"
	}
	return &redisEmbeddingCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}, nil
}

func (c *redisEmbeddingCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

func (c *redisEmbeddingCache) GetMany(ctx context.Context, keys []string) ([][]float32, error) {
	out := make([][]float32, len(keys))
	if c == nil || c.client == nil || len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	vals, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return out, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			continue
		}
		out[i] = vec
	}
	return out, nil
}

func (c *redisEmbeddingCache) SetMany(ctx context.Context, keys []string, values [][]float32) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	if len(keys) != len(values) {
		return fmt.Errorf("cache: %d keys for %d values", len(keys), len(values))
	}
	pipe := c.client.Pipeline()
	for i, k := range keys {
		data, err := json.Marshal(values[i])
		if err != nil {
			return err
		}
		pipe.Set(ctx, c.key(k), data, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisEmbeddingCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
