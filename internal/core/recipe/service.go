package recipe

import (
	"context"
	"sync"
	"time"

	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
)

// PreferenceReader 讀取使用者的不喜歡類別名稱
type PreferenceReader interface {
	Preferences(ctx context.Context, userID string) ([]string, error)
}

// ServiceOptions 工作階段管理參數
type ServiceOptions struct {
	SuggestionLimit int
	CandidateLimit  int
	IdleTTL         time.Duration
	SweepInterval   time.Duration
}

// Service 管理各使用者的瀏覽工作階段
type Service struct {
	source RecipeSource
	prefs  PreferenceReader
	opts   ServiceOptions

	mu       sync.RWMutex
	sessions map[string]*Session
	done     chan struct{}
	once     sync.Once
	now      func() time.Time
}

// NewService 創建工作階段服務，SweepInterval > 0 時啟動閒置清理
func NewService(source RecipeSource, prefs PreferenceReader, opts ServiceOptions) *Service {
	s := &Service{
		source:   source,
		prefs:    prefs,
		opts:     opts,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	if opts.SweepInterval > 0 && opts.IdleTTL > 0 {
		go s.sweepLoop()
	}
	return s
}

// Create 為使用者建立新工作階段；偏好只在此讀取一次
func (s *Service) Create(ctx context.Context, userID string) *Session {
	disliked := s.loadDisliked(ctx, userID)

	sess := NewSession(common.GenerateUUID(), userID, PipelineContext{
		Disliked: disliked,
		Source:   s.source,
	}, SessionOptions{
		SuggestionLimit: s.opts.SuggestionLimit,
		CandidateLimit:  s.opts.CandidateLimit,
	})

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	common.LogInfo("工作階段已建立",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.Strings("disliked", CategoryNames(disliked)),
	)
	return sess
}

// Get 依 ID 取得工作階段
func (s *Service) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete 移除工作階段並取消其進行中的操作
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	return nil
}

// Count 目前工作階段數量
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close 停止清理協程並取消所有工作階段
func (s *Service) Close() {
	s.once.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

// loadDisliked 讀取偏好；失敗時記錄並以無排除條件繼續
func (s *Service) loadDisliked(ctx context.Context, userID string) []AllergenCategory {
	if s.prefs == nil || userID == "" {
		return nil
	}
	names, err := s.prefs.Preferences(ctx, userID)
	if err != nil {
		common.LogWarn("Failed to load preferences",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return ParseCategories(names)
}

func (s *Service) sweepLoop() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// sweep 移除閒置超過 IdleTTL 的工作階段
func (s *Service) sweep() int {
	cutoff := s.now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		common.LogInfo("清除閒置工作階段", zap.Int("count", len(expired)))
	}
	return len(expired)
}
