package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func redisKey(token, key string) string {
	return fmt.Sprintf("session:%s:%s", token, key)
}

func (s *RedisStore) Get(ctx context.Context, token, key string, dst any) (bool, error) {
	if token == "" {
		return false, ErrNoSession
	}
	raw, err := s.Client.Get(ctx, redisKey(token, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("session decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, token, key string, value any) error {
	if token == "" {
		return ErrNoSession
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", key, err)
	}
	return s.Client.Set(ctx, redisKey(token, key), raw, s.TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, token, key string) error {
	if token == "" {
		return ErrNoSession
	}
	return s.Client.Del(ctx, redisKey(token, key)).Err()
}
