package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Vector/hubspot-connector/models"
	"github.com/Vector/hubspot-connector/redis/config"
)

// Store is the Redis-backed credential store. Values are written with a TTL
// and expire on their own; nothing in this module deletes them.
type Store struct {
	rdb *goredis.Client
}

// NewStore creates a credential store and verifies connectivity.
func NewStore(ctx context.Context, cfg *config.RedisConfig) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{rdb: rdb}, nil
}

// Set writes value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Get returns the value stored under key, or models.ErrNotFound when the
// key is absent or already expired.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", models.ErrNotFound
		}

		return "", fmt.Errorf("redis get %s: %w", key, err)
	}

	return value, nil
}

// TTL reports the remaining lifetime of key.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}

	return ttl, nil
}

// Close closes the underlying Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
