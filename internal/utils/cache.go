package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Redis miss detection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// DefaultCacheTTL is used when a Cache is built with a non-positive TTL
const DefaultCacheTTL = 60 * time.Second

// Cache stores JSON encoded values in Redis under a key prefix with one TTL
type Cache struct {
	rdb    *redis.Client // Redis client
	prefix string        // Namespace prepended to every key
	TTL    time.Duration // Lifetime of every entry
}

// NewCache builds a Cache. Keys are stored as prefix + ":" + key.
func NewCache(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL // Fall back to the default lifetime
	}
	return &Cache{rdb: rdb, prefix: prefix, TTL: ttl}
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// Set stores value in Redis for the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, c.key(key), b, c.TTL).Err() // Set value in Redis with TTL
}

// Delete removes keys from Redis
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k) // Apply the prefix
	}
	return c.rdb.Del(ctx, full...).Err() // Delete keys from Redis
}
