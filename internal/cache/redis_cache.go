package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sandman-server/internal/model"
)

// Compile-time check to ensure redisResultCache implements ResultCache.
var _ ResultCache = (*redisResultCache)(nil)

type redisResultCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisResultCache creates a new Redis-backed ResultCache.
// Entries are stored without TTL: cached stories are permanent until an
// external administrative flush (invalidation is a deliberate extension point).
func NewRedisResultCache(client *redis.Client, logger *zap.Logger) ResultCache {
	return &redisResultCache{
		client: client,
		logger: logger.Named("RedisResultCache"),
	}
}

func cacheKey(key string) string {
	return fmt.Sprintf("story_cache:%s", key)
}

// Get looks up a previously cached story by its request fingerprint.
func (c *redisResultCache) Get(ctx context.Context, key string) (*CachedStory, error) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.Debug("Cache miss", zap.String("key", key))
			return nil, model.ErrNotFound
		}
		c.logger.Error("Failed to read cache entry", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var story CachedStory
	if err := json.Unmarshal(data, &story); err != nil {
		// Corrupted entry behaves like a miss so the pipeline regenerates.
		c.logger.Warn("Failed to unmarshal cache entry, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, model.ErrNotFound
	}

	c.logger.Debug("Cache hit", zap.String("key", key), zap.String("storyID", story.ID))
	return &story, nil
}

// Put upserts the cached story for a request fingerprint.
func (c *redisResultCache) Put(ctx context.Context, key string, story *CachedStory) error {
	data, err := json.Marshal(story)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(key), data, 0).Err(); err != nil {
		c.logger.Error("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	c.logger.Debug("Cache entry stored", zap.String("key", key), zap.String("storyID", story.ID))
	return nil
}
