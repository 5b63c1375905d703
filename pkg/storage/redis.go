package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is used when no key is configured.
const DefaultRedisKey = "climacast:artifact"

// RedisStore keeps the artifact under a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the Redis instance described by url
// (redis://[:password@]host:port/db).
func NewRedisStore(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: redis.NewClient(opts), key: key}, nil
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Save implements Saver. The key is overwritten without expiry.
func (s *RedisStore) Save(ctx context.Context, a *Artifact) error {
	data, err := marshal(a)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load implements Loader.
func (s *RedisStore) Load(ctx context.Context) (*Artifact, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return Decode(bytes.NewReader(data))
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// String identifies the backend in logs.
func (s *RedisStore) String() string { return "redis:" + s.key }
