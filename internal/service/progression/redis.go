package progression

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSlots persists slots as plain Redis string keys under a prefix.
type RedisSlots struct {
	client *redis.Client
	prefix string
}

// NewRedisSlots connects to addr and verifies the connection.
func NewRedisSlots(ctx context.Context, addr, password string, db int, prefix string) (*RedisSlots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisSlots{client: client, prefix: prefix}, nil
}

func (r *RedisSlots) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisSlots) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Close closes the underlying client.
func (r *RedisSlots) Close() error {
	return r.client.Close()
}
