package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in Redis so several client processes can share
// one login.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	key    string
}

// NewRedisStore creates a Redis-backed store. The token lives at "prefix:key".
func NewRedisStore(client *redis.Client, prefix, key string) *RedisStore {
	if key == "" {
		key = "token"
	}
	return &RedisStore{redis: client, prefix: prefix, key: key}
}

func (s *RedisStore) redisKey() string {
	if s.prefix == "" {
		return s.key
	}
	return fmt.Sprintf("%s:%s", s.prefix, s.key)
}

// Load returns the token, or "" when the key does not exist.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.redisKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credentials: redis get: %w", err)
	}
	return token, nil
}

// Save stores the token without expiry.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.redisKey(), token, 0).Err(); err != nil {
		return fmt.Errorf("credentials: redis set: %w", err)
	}
	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.redisKey()).Err(); err != nil {
		return fmt.Errorf("credentials: redis del: %w", err)
	}
	return nil
}
