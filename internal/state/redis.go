package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "proactive-ai-bot:"

// RedisStore keeps each blob under a single string key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Load(ctx context.Context, handle string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+handle).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", handle, err)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, handle string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+handle, data, 0).Err(); err != nil {
		return fmt.Errorf("saving %s: %w", handle, err)
	}
	return nil
}
