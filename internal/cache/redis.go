package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/tripplanner/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrCacheMiss is returned when a key is absent or caching is disabled
var ErrCacheMiss = errors.New("cache miss")

// RedisCache backs the session store for the internal binding and a
// read cache for trip lookups
type RedisCache struct {
	client     *redis.Client
	enabled    bool
	sessionTTL time.Duration
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:     client,
		enabled:    true,
		sessionTTL: cfg.SessionTTL,
	}, nil
}

// Get retrieves a JSON value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return errors.Wrap(ErrCacheMiss, key)
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}

	return nil
}

// Set stores a JSON value in cache with optional expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}

	return nil
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	return errors.Wrap(c.client.Del(ctx, key).Err(), "failed to delete key from Redis")
}

// SessionUser resolves a session token to the user it belongs to
func (c *RedisCache) SessionUser(ctx context.Context, token string) (uuid.UUID, error) {
	if !c.enabled {
		return uuid.Nil, ErrCacheMiss
	}

	value, err := c.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, errors.Wrap(ErrCacheMiss, "unknown session")
		}
		return uuid.Nil, errors.Wrap(err, "failed to look up session")
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "corrupt session entry")
	}

	return userID, nil
}

// PutSession stores a session token for a user
func (c *RedisCache) PutSession(ctx context.Context, token string, userID uuid.UUID) error {
	if !c.enabled {
		return errors.New("cache is disabled")
	}
	return errors.Wrap(
		c.client.Set(ctx, sessionKey(token), userID.String(), c.sessionTTL).Err(),
		"failed to store session",
	)
}

func sessionKey(token string) string {
	return "session:" + token
}

// TripCacheKey generates a cache key for trip data
func TripCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("trip:%s", id.String())
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
