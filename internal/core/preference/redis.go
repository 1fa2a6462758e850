package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenerate/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const maxUpdateRetries = 5

var _ Store = (*RedisStore)(nil)

// RedisStore 以 JSON 文件保存檔案，key 為 <prefix>:<uid>
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore 創建 Redis 檔案儲存，client 由呼叫者管理
func NewRedisStore(ctx context.Context, client *redis.Client, prefix string) (*RedisStore, error) {
	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if prefix == "" {
		prefix = "users"
	}
	return &RedisStore{
		client: client,
		prefix: "greenerate:" + prefix,
		now:    time.Now,
	}, nil
}

// Get 讀取檔案
func (s *RedisStore) Get(ctx context.Context, userID string) (*Profile, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return decodeProfile(data)
}

// Create 建立或覆寫檔案
func (s *RedisStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	out, err := prepareCreate(p, stamp(s.now))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, s.key(out.UserID), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return out, nil
}

// Update 以 WATCH 交易合併更新；併發衝突時重試
func (s *RedisStore) Update(ctx context.Context, userID string, u Update) (*Profile, error) {
	key := s.key(userID)
	var result *Profile

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		p, err := decodeProfile(data)
		if err != nil {
			return err
		}
		if err := applyUpdate(p, u, stamp(s.now)); err != nil {
			return err
		}
		out, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			result = p
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			if _, ok := common.AsCustomError(err); ok {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		common.LogDebug("檔案更新衝突，重試", zap.String("user_id", userID), zap.Int("attempt", i+1))
	}
	return nil, common.ErrConflict.Wrap(fmt.Errorf("profile %s updated concurrently", userID))
}

// Preferences 讀取不喜歡的類別
func (s *RedisStore) Preferences(ctx context.Context, userID string) ([]string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p.Preferences, nil
}

// Close Redis client 的生命週期由呼叫者負責
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func decodeProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := common.ParseJSONBytes(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}
