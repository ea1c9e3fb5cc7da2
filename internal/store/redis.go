package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps flags as redis keys without expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required for the redis store")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = constants.DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(visitorID string) string {
	return r.prefix + visitorID
}

// Completed reports whether visitorID has submitted.
func (r *RedisStore) Completed(ctx context.Context, visitorID string) (bool, error) {
	if err := checkVisitor(visitorID); err != nil {
		return false, err
	}
	val, err := r.client.Get(ctx, r.key(visitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read flag for visitor %s: %w", visitorID, err)
	}
	return val == "true", nil
}

// MarkCompleted records the submission of visitorID.
func (r *RedisStore) MarkCompleted(ctx context.Context, visitorID string) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(visitorID), "true", 0).Err(); err != nil {
		return fmt.Errorf("failed to write flag for visitor %s: %w", visitorID, err)
	}
	return nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
