package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session keys in Redis.
const sessionKeyPrefix = "cardgate:session:"

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisSessionBackend stores sessions as Redis strings with a TTL, so expiry
// is enforced by Redis itself.
type RedisSessionBackend struct {
	client redis.UniversalClient
}

func NewRedisSessionBackend(client redis.UniversalClient) *RedisSessionBackend {
	return &RedisSessionBackend{client: client}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (b *RedisSessionBackend) Load(ctx context.Context, id string) ([]byte, error) {
	data, err := b.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return data, nil
}

func (b *RedisSessionBackend) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, sessionKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (b *RedisSessionBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (b *RedisSessionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
