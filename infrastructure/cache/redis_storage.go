package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces response snapshots in Redis.
const DefaultKeyPrefix = "etag:cache:"

// RedisLike is the subset of the Redis client the storage needs.
type RedisLike interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStorage stores responses as JSON with a server-side TTL.
type RedisStorage struct {
	client     RedisLike
	prefix     string
	defaultTTL time.Duration
}

type RedisStorageOption func(*RedisStorage)

func WithKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) { s.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

func NewRedisStorage(client RedisLike, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{
		client:     client,
		prefix:     DefaultKeyPrefix,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns nil on a miss. A value that does not decode is deleted and reported as a miss.
func (s *RedisStorage) Get(ctx context.Context, key string) (*model.CachedResponse, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	var value model.CachedResponse
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logger.GetLogger().WithField("error", err).WithField("key", key).Warn("Dropping corrupt cache entry")
		if delErr := s.client.Del(ctx, s.prefix+key).Err(); delErr != nil {
			logger.GetLogger().WithField("error", delErr).WithField("key", key).Warn("Failed to delete corrupt cache entry")
		}
		return nil, nil
	}
	return &value, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}
