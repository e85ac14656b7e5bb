// ABOUTME: Redis implementation of FlagStore using go-redis
// ABOUTME: Keeps each client's flags in one hash so a client is a single key

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces modelview keys in a shared Redis.
const DefaultRedisPrefix = "modelview"

// RedisStore implements FlagStore on Redis hashes.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// Ensure RedisStore implements FlagStore.
var _ FlagStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. An empty prefix selects DefaultRedisPrefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		logger: slog.Default().With("component", "store", "driver", "redis"),
	}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	s := NewRedisStore(rdb, prefix)
	s.logger.Info("redis flag store initialized", "addr", addr, "db", db)
	return s, nil
}

func (s *RedisStore) clientKey(clientID string) string {
	return s.prefix + ":client:" + clientID
}

// GetFlag retrieves the value stored under key for a client.
func (s *RedisStore) GetFlag(ctx context.Context, clientID, key string) (string, error) {
	value, err := s.rdb.HGet(ctx, s.clientKey(clientID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading flag: %w", err)
	}
	return value, nil
}

// SetFlag stores value under key for a client.
func (s *RedisStore) SetFlag(ctx context.Context, clientID, key, value string) error {
	if err := s.rdb.HSet(ctx, s.clientKey(clientID), key, value).Err(); err != nil {
		return fmt.Errorf("writing flag: %w", err)
	}
	return nil
}

// DeleteFlag removes key for a client.
func (s *RedisStore) DeleteFlag(ctx context.Context, clientID, key string) error {
	if err := s.rdb.HDel(ctx, s.clientKey(clientID), key).Err(); err != nil {
		return fmt.Errorf("deleting flag: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
