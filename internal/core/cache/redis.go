package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenerate/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore 以 Redis 實作的快取
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore 創建 Redis 快取，client 由呼叫者管理
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: "greenerate:cache",
	}, nil
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, kind, key string) (string, error) {
	val, err := s.client.Get(ctx, s.generateKey(kind, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss(kind, key)
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit(kind, key)
	return val, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, kind, key, value string) error {
	if err := s.client.Set(ctx, s.generateKey(kind, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close Redis client 的生命週期由呼叫者負責
func (s *RedisStore) Close() error {
	return nil
}

// generateKey 生成緩存鍵
func (s *RedisStore) generateKey(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, kind, key)
}
