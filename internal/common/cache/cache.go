package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	milestonesKeyPrefix = "cache:milestones:all"

	// Bumped on every milestone write; the list is cached under the generation it was read at.
	milestonesGenerationKey = "cache:milestones:gen"
)

type CacheService struct {
	redisClient redis.Cmdable
}

func NewCacheService(redisClient redis.Cmdable) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// Get decodes the cached JSON value into dest. A miss returns redis.Nil.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redisClient.Set(ctx, key, data, ttl).Err()
}

func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.redisClient.Del(ctx, key).Err()
}

// GetOrSet reads key into dest, or calls setter, caches its result and copies it into dest.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}

	return c.redisClient.Set(ctx, key, data, ttl).Err()
}

// MilestonesKey returns the key of the current milestone list generation. A
// reader that loaded the list before a write can only fill the old key.
func (c *CacheService) MilestonesKey(ctx context.Context) (string, error) {
	gen, err := c.redisClient.Get(ctx, milestonesGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d", milestonesKeyPrefix, gen), nil
}

func (c *CacheService) InvalidateMilestones(ctx context.Context) error {
	key, err := c.MilestonesKey(ctx)
	if err != nil {
		return err
	}
	if err := c.redisClient.Incr(ctx, milestonesGenerationKey).Err(); err != nil {
		return err
	}
	return c.Delete(ctx, key)
}
