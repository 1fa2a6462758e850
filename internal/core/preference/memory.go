package preference

import (
	"context"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore 記憶體內的檔案儲存，供開發與測試使用
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	now      func() time.Time
}

// NewMemoryStore 創建空的記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
}

// Get 讀取檔案
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

// Create 建立或覆寫檔案
func (s *MemoryStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	out, err := prepareCreate(p, stamp(s.now))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[out.UserID] = out
	return cloneProfile(out), nil
}

// Update 合併更新
func (s *MemoryStore) Update(ctx context.Context, userID string, u Update) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	next := cloneProfile(p)
	if err := applyUpdate(next, u, stamp(s.now)); err != nil {
		return nil, err
	}
	s.profiles[userID] = next
	return cloneProfile(next), nil
}

// Preferences 讀取不喜歡的類別
func (s *MemoryStore) Preferences(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), p.Preferences...), nil
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}
