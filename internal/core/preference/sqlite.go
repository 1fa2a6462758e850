package preference

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore 以 SQLite 保存檔案，preferences 欄位為 JSON 陣列
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

// NewSQLiteStore 開啟資料庫並套用 schema
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite 只允許單一寫入者
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.applySchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	common.LogInfo("偏好資料庫已開啟", zap.String("path", dbPath))
	return s, nil
}

// applySchema 執行內嵌的 schema.sql
func (s *SQLiteStore) applySchema(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, schemaSQL)
	return err
}

// Get 讀取檔案
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.get(ctx, s.conn, userID)
}

// Create 建立或覆寫檔案
func (s *SQLiteStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	out, err := prepareCreate(p, stamp(s.now))
	if err != nil {
		return nil, err
	}
	prefs, err := json.Marshal(out.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, username, preferences, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			username = excluded.username,
			preferences = excluded.preferences,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		out.UserID, out.Email, out.Username, string(prefs),
		out.CreatedAt.UnixMilli(), out.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return out, nil
}

// Update 在交易內讀取、合併並寫回
func (s *SQLiteStore) Update(ctx context.Context, userID string, u Update) (*Profile, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := s.get(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(p, u, stamp(s.now)); err != nil {
		return nil, err
	}
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET username = ?, preferences = ?, updated_at = ? WHERE user_id = ?`,
		p.Username, string(prefs), p.UpdatedAt.UnixMilli(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit profile update: %w", err)
	}
	return p, nil
}

// Preferences 讀取不喜歡的類別
func (s *SQLiteStore) Preferences(ctx context.Context, userID string) ([]string, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p.Preferences, nil
}

// Close 關閉資料庫
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q queryer, userID string) (*Profile, error) {
	var (
		p                Profile
		prefs            string
		created, updated int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT user_id, email, username, preferences, created_at, updated_at FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Email, &p.Username, &prefs, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if err := common.ParseJSON(prefs, &p.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}
