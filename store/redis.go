package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tienda:"

// RedisStore implements Store on top of Redis, for deployments where the
// client state must be shared between processes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(key string) ([]byte, error) {
	value, err := r.client.Get(context.Background(), redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *RedisStore) Set(key string, value []byte) error {
	return r.client.Set(context.Background(), redisKeyPrefix+key, value, 0).Err()
}

func (r *RedisStore) Delete(key string) error {
	return r.client.Del(context.Background(), redisKeyPrefix+key).Err()
}
