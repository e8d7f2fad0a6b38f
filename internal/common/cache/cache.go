package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

const (
	keyPrefixHTTP = "httpcache:"
	scanBatch     = 200
)

type CacheService struct {
	redisClient *redis.Client
}

func NewCacheService(redisClient *redis.Client) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// Get decodes the JSON value stored under key into dest.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores value as JSON.
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

// DeletePattern removes every key matching a glob pattern. It walks the
// keyspace with SCAN so large keyspaces do not block the server. Keys are
// deleted only after the scan completes.
func (c *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.redisClient.Scan(ctx, 0, pattern, scanBatch).Iterator()
	seen := make(map[string]struct{})
	var keys []string
	for iter.Next(ctx) {
		key := iter.Val()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return err
	}

	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := c.redisClient.Del(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// HTTPKey is the response-cache key for a GET request URI.
func HTTPKey(requestURI string) string {
	return keyPrefixHTTP + "GET:" + requestURI
}

// InvalidatePath drops cached responses for a path and everything below it,
// query strings included.
func (c *CacheService) InvalidatePath(ctx context.Context, path string) error {
	if err := c.DeletePattern(ctx, HTTPKey(path)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	if err := c.DeletePattern(ctx, HTTPKey(path)+"[/?]*"); err != nil {
		return fmt.Errorf("failed to delete pattern under %s: %w", path, err)
	}
	return nil
}
