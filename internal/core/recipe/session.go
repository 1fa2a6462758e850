package recipe

import (
	"context"
	"sync"
	"time"

	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
)

// Session 一次「產生 → 瀏覽 → 清除」的互動週期。
// 同一時間只有最新的 Generate/Next 操作能寫入結果，舊操作會被取消並捨棄。
type Session struct {
	ID     string
	UserID string

	pipeline       PipelineContext
	candidateLimit int
	suggester      *Suggester

	mu          sync.Mutex
	ingredients *IngredientSet
	candidates  []Candidate
	index       int
	detail      *Detail
	state       State
	errMsg      string
	op          uint64
	revision    uint64
	cancel      context.CancelFunc
	lastActive  time.Time
	now         func() time.Time
}

// SessionOptions 工作階段參數
type SessionOptions struct {
	SuggestionLimit int
	CandidateLimit  int
}

// NewSession 以明確的 PipelineContext 建立工作階段
func NewSession(id, userID string, pipeline PipelineContext, opts SessionOptions) *Session {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = DefaultCandidateLimit
	}
	s := &Session{
		ID:             id,
		UserID:         userID,
		pipeline:       pipeline,
		candidateLimit: opts.CandidateLimit,
		suggester:      NewSuggester(pipeline.Source, opts.SuggestionLimit),
		ingredients:    NewIngredientSet(),
		state:          StateIdle,
		now:            time.Now,
	}
	s.lastActive = s.now()
	return s
}

// AddIngredient 加入食材；集合有變動時清空建議
func (s *Session) AddIngredient(name string) bool {
	s.mu.Lock()
	changed := s.ingredients.Add(name)
	if changed {
		s.revision++
	}
	s.touchLocked()
	s.mu.Unlock()

	if changed {
		s.suggester.Clear()
	}
	return changed
}

// RemoveIngredient 移除食材
func (s *Session) RemoveIngredient(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.ingredients.Remove(name) {
		return false
	}
	s.revision++
	return true
}

// Suggest 自動完成，過期結果不會覆蓋較新的建議
func (s *Session) Suggest(ctx context.Context, query string) ([]Suggestion, bool) {
	s.mu.Lock()
	s.touchLocked()
	s.mu.Unlock()
	return s.suggester.Suggest(ctx, query)
}

// Generate 以目前食材查詢候選、過濾，並載入第一個候選的詳細資料
func (s *Session) Generate(ctx context.Context) (*Detail, error) {
	s.mu.Lock()
	s.touchLocked()
	if s.ingredients.Len() == 0 {
		s.mu.Unlock()
		return nil, ErrNoIngredients
	}

	op, ctx, cancel := s.beginLocked(ctx)
	defer cancel()
	items := s.ingredients.Items()
	s.candidates = nil
	s.index = 0
	s.detail = nil
	s.errMsg = ""
	s.state = StateLoading
	s.mu.Unlock()

	common.LogInfo("開始產生食譜",
		zap.String("session_id", s.ID),
		zap.Strings("ingredients", items),
		zap.Strings("disliked", CategoryNames(s.pipeline.Disliked)),
	)

	raw, err := s.pipeline.Source.FindByIngredients(ctx, items, s.candidateLimit)

	s.mu.Lock()
	if op != s.op {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		common.LogWarn("候選食譜查詢失敗", zap.String("session_id", s.ID), zap.Error(err))
		s.failLocked(ErrFetchFailed)
		s.mu.Unlock()
		return nil, ErrFetchFailed.Wrap(err)
	}
	if len(raw) == 0 {
		s.failLocked(ErrNoRecipes)
		s.mu.Unlock()
		return nil, ErrNoRecipes
	}

	filtered := Filter(raw, s.pipeline.Disliked)
	common.LogDebug("過敏原過濾完成",
		zap.String("session_id", s.ID),
		zap.Ints("candidates", common.CandidateIDs(raw)),
		zap.Ints("kept", common.CandidateIDs(filtered)),
	)
	if len(filtered) == 0 {
		s.failLocked(ErrAllFiltered)
		s.mu.Unlock()
		return nil, ErrAllFiltered
	}

	s.candidates = filtered
	s.index = 0
	id := filtered[0].ID
	s.mu.Unlock()

	return s.resolve(ctx, op, id)
}

// Next 前進到下一個候選並重新載入詳細資料（不重新查詢候選）。
// 已在最後一個候選或仍在載入時為 no-op，不改變狀態。
func (s *Session) Next(ctx context.Context) (*Detail, error) {
	s.mu.Lock()
	s.touchLocked()
	if s.state == StateLoading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.index+1 >= len(s.candidates) {
		s.mu.Unlock()
		return nil, ErrNoMoreRecipes
	}

	op, ctx, cancel := s.beginLocked(ctx)
	defer cancel()
	s.index++
	s.detail = nil
	s.errMsg = ""
	s.state = StateLoading
	id := s.candidates[s.index].ID
	s.mu.Unlock()

	return s.resolve(ctx, op, id)
}

// Clear 取消進行中的操作並重設所有狀態（包含食材）
func (s *Session) Clear() {
	s.mu.Lock()
	s.op++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ingredients.Reset()
	s.revision++
	s.candidates = nil
	s.index = 0
	s.detail = nil
	s.errMsg = ""
	s.state = StateIdle
	s.touchLocked()
	s.mu.Unlock()

	s.suggester.Clear()
}

// Close 取消進行中的操作與自動完成查詢
func (s *Session) Close() {
	s.mu.Lock()
	s.op++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.suggester.Clear()
}

// Revision 食材輸入的版本；加入、移除食材或清除時遞增
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// HasNext 「下一個」是否可用
func (s *Session) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNextLocked()
}

// Snapshot 取得目前狀態的副本
func (s *Session) Snapshot() Snapshot {
	suggestions := s.suggester.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]Candidate, len(s.candidates))
	copy(candidates, s.candidates)

	var detail *Detail
	if s.detail != nil {
		d := *s.detail
		d.IngredientLines = append([]string(nil), s.detail.IngredientLines...)
		detail = &d
	}

	return Snapshot{
		ID:           s.ID,
		UserID:       s.UserID,
		State:        s.state,
		Ingredients:  s.ingredients.Items(),
		Suggestions:  suggestions,
		Candidates:   candidates,
		CurrentIndex: s.index,
		HasNext:      s.hasNextLocked(),
		Detail:       detail,
		Error:        s.errMsg,
		Disliked:     CategoryNames(s.pipeline.Disliked),
	}
}

// LastActive 最後活動時間
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// resolve 載入詳細資料；只有仍為最新操作時才寫入結果
func (s *Session) resolve(ctx context.Context, op uint64, id int) (*Detail, error) {
	info, err := s.pipeline.Source.RecipeInformation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if op != s.op {
		return nil, ErrSuperseded
	}
	if err != nil {
		common.LogWarn("食譜詳細資料載入失敗",
			zap.String("session_id", s.ID),
			zap.Int("recipe_id", id),
			zap.Error(err),
		)
		s.failLocked(ErrDetailFailed)
		return nil, ErrDetailFailed.Wrap(err)
	}

	s.detail = BuildDetail(id, info.Title, info.ImageURL, info.Instructions, info.IngredientLines)
	s.state = StateReady
	s.cancel = nil

	d := *s.detail
	return &d, nil
}

// beginLocked 開始新操作：取消前一個並回傳新的操作序號與 context
func (s *Session) beginLocked(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	if s.cancel != nil {
		s.cancel()
	}
	s.op++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return s.op, ctx, cancel
}

func (s *Session) failLocked(err *common.CustomError) {
	s.state = StateError
	s.detail = nil
	s.errMsg = err.Message
	s.cancel = nil
}

func (s *Session) hasNextLocked() bool {
	return s.state != StateLoading && s.index+1 < len(s.candidates)
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}
