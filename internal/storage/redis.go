package storage

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel comparison
	"fmt"           // Error wrapping
	"time"          // Key expiry

	"github.com/redis/go-redis/v9" // Redis client
)

// RedisStore keeps values in Redis under an optional key prefix
type RedisStore struct {
	rdb    *redis.Client // Redis client
	prefix string        // Prepended to every key
	ttl    time.Duration // Expiry for saved keys, 0 keeps them forever
}

// NewRedisStore returns a Store backed by rdb
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Load retrieves a value from Redis and unmarshals it into dest
func (s *RedisStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err) // Other Redis error
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err) // Corrupt payload
	}
	return true, nil
}

// Save sets a value in Redis with the store TTL
func (s *RedisStore) Save(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err) // Return error if marshaling fails
	}
	if err := s.rdb.Set(ctx, s.prefix+key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
