package documents

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered PDFs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, pdf []byte, ttl time.Duration) error
}

// RedisCache keeps PDFs in Redis under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps a Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "sejahtera:documents:"}
}

// Get returns the cached PDF, reporting false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pdf, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return pdf, true, nil
}

// Set stores a PDF with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, pdf []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, pdf, ttl).Err()
}
