// Package cache provides fingerprint stores for cross-batch deduplication.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentRanker/internal/ports"
)

const defaultKeyPrefix = "contentranker:fp:"

// RedisStore keeps fingerprints as expiring Redis keys.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.FingerprintStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. ttl <= 0 keeps keys forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: max(ttl, 0)}
}

// NewRedisStoreWithURL parses a redis:// URL and builds the client.
func NewRedisStoreWithURL(url, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix, ttl), nil
}

// Seen checks all fingerprints in one pipeline round trip.
func (s *RedisStore) Seen(ctx context.Context, fingerprints []string) (map[string]bool, error) {
	result := make(map[string]bool, len(fingerprints))
	if len(fingerprints) == 0 {
		return result, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(fingerprints))
	for i, fp := range fingerprints {
		cmds[i] = pipe.Exists(ctx, s.prefix+fp)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("check fingerprints: %w", err)
	}

	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			result[fingerprints[i]] = true
		}
	}
	return result, nil
}

// Remember stores every non-empty fingerprint with the configured TTL.
func (s *RedisStore) Remember(ctx context.Context, fingerprints []string) error {
	pipe := s.client.Pipeline()
	queued := 0
	for _, fp := range fingerprints {
		if fp == "" {
			continue
		}
		pipe.Set(ctx, s.prefix+fp, time.Now().Unix(), s.ttl)
		queued++
	}
	if queued == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store fingerprints: %w", err)
	}
	return nil
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
