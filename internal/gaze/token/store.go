// Package token obtains and caches Gaze bearer tokens.
package token

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store holds the current bearer token.
type Store interface {
	// Get returns the cached token, or false when none is cached or it expired.
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

const cacheKey = "gaze:token"

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a process-local token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context) (string, bool, error) {
	v, ok := s.cache.Get(cacheKey)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) Set(_ context.Context, token string, ttl time.Duration) error {
	s.cache.Set(cacheKey, token, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.cache.Delete(cacheKey)
	return nil
}

// RedisStore shares the token between worker processes.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: cacheKey}
}

func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key, token, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
