package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisProvider stores documents as plain string values under Prefix+key.
type RedisProvider struct {
	client *redis.Client
	prefix string
}

// NewRedisProvider wraps an existing client. The provider owns the client
// and closes it in Close.
func NewRedisProvider(client *redis.Client, prefix string) *RedisProvider {
	if client == nil {
		panic("store.NewRedisProvider: client is nil")
	}
	return &RedisProvider{client: client, prefix: prefix}
}

func (p *RedisProvider) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (p *RedisProvider) Save(ctx context.Context, key string, data []byte) error {
	return p.client.Set(ctx, p.prefix+key, data, 0).Err()
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}
