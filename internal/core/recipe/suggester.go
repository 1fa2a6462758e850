package recipe

import (
	"context"
	"strings"
	"sync"

	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
)

// Suggester 食材自動完成；只套用最後一次發出的查詢結果
type Suggester struct {
	source RecipeSource
	limit  int

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current []Suggestion
}

// NewSuggester 創建自動完成器
func NewSuggester(source RecipeSource, limit int) *Suggester {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	return &Suggester{source: source, limit: limit}
}

// Suggest 發出新查詢並取消先前未完成的查詢。
// applied 為 false 代表結果已過期（有更新的查詢），current 不受影響。
// 服務錯誤降級為空列表，不回傳錯誤。
func (s *Suggester) Suggest(ctx context.Context, query string) (suggestions []Suggestion, applied bool) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if strings.TrimSpace(query) == "" {
		s.current = nil
		s.mu.Unlock()
		return []Suggestion{}, true
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	result, err := s.source.Autocomplete(ctx, query, s.limit)
	if err != nil {
		if ctx.Err() != nil {
			// 被較新的查詢或 Clear 取消
			common.LogDebug("自動完成查詢已取消", zap.String("query", query))
		} else {
			common.LogWarn("自動完成查詢失敗",
				zap.String("query", query),
				zap.Error(err),
			)
		}
		result = []Suggestion{}
	}
	if len(result) > s.limit {
		result = result[:s.limit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		common.LogDebug("捨棄過期的自動完成結果",
			zap.String("query", query),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.seq),
		)
		return result, false
	}
	s.current = result
	s.cancel = nil
	return result, true
}

// Current 目前顯示中的建議
func (s *Suggester) Current() []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Suggestion, len(s.current))
	copy(out, s.current)
	return out
}

// Clear 清空建議並使所有進行中的查詢失效
func (s *Suggester) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.current = nil
}
