// Package preference 保存使用者檔案與不喜歡的食物類別
package preference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"greenerate/internal/core/recipe"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound 使用者檔案不存在
var ErrNotFound = common.NewError(common.ErrCodeNotFound, "Profile not found.", http.StatusNotFound, nil)

// Profile 使用者檔案
type Profile struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Preferences []string  `json:"preferences"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update 部分更新；nil 欄位保留原值
type Update struct {
	Username    *string   `json:"username,omitempty"`
	Preferences *[]string `json:"preferences,omitempty"`
}

// Store 使用者檔案儲存
type Store interface {
	// Get 讀取檔案，不存在時回傳 ErrNotFound
	Get(ctx context.Context, userID string) (*Profile, error)
	// Create 建立或覆寫檔案
	Create(ctx context.Context, p *Profile) (*Profile, error)
	// Update 合併更新既有檔案，不存在時回傳 ErrNotFound
	Update(ctx context.Context, userID string, u Update) (*Profile, error)
	// Preferences 讀取不喜歡的類別；檔案不存在時回傳 nil
	Preferences(ctx context.Context, userID string) ([]string, error)
	Close() error
}

// NewStore 依設定建立儲存；redis 驅動需要 client
func NewStore(ctx context.Context, cfg config.StoreConfig, client *redis.Client) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis store requires a client")
		}
		return NewRedisStore(ctx, client, cfg.KeyPrefix)
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// prepareCreate 驗證並補上時間戳記
func prepareCreate(p *Profile, now time.Time) (*Profile, error) {
	if p == nil || strings.TrimSpace(p.UserID) == "" {
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("user id is required"))
	}
	prefs, err := normalizePreferences(p.Preferences)
	if err != nil {
		return nil, err
	}

	out := *p
	out.Preferences = prefs
	out.UpdatedAt = now
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	} else {
		out.CreatedAt = out.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	return &out, nil
}

// applyUpdate 將部分更新合併到既有檔案
func applyUpdate(p *Profile, u Update, now time.Time) error {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Preferences != nil {
		prefs, err := normalizePreferences(*u.Preferences)
		if err != nil {
			return err
		}
		p.Preferences = prefs
	}
	p.UpdatedAt = now
	return nil
}

// normalizePreferences 驗證類別名稱並去除重複
func normalizePreferences(names []string) ([]string, error) {
	if err := recipe.ValidateCategories(names); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// stamp 儲存層統一使用毫秒精度的 UTC 時間
func stamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Millisecond)
}

func cloneProfile(p *Profile) *Profile {
	out := *p
	out.Preferences = append([]string(nil), p.Preferences...)
	return &out
}
