package recipe

import (
	"context"

	"greenerate/internal/pkg/common"
)

// Suggestion 食材建議
type Suggestion = common.Suggestion

// Candidate 候選食譜
type Candidate = common.RecipeCandidate

// Detail 格式化後的食譜詳細資料
type Detail = common.RecipeDetail

// RecipeSource 食譜查詢服務（由 spoonacular.Client 或其快取版本實作）
type RecipeSource interface {
	Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error)
	FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error)
	RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error)
}

// PipelineContext 每個工作階段建立一次的明確依賴
type PipelineContext struct {
	Disliked []AllergenCategory
	Source   RecipeSource
}

// State 工作階段狀態
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// 預設數量
const (
	DefaultSuggestionLimit = 5
	DefaultCandidateLimit  = 10
)

// Snapshot 工作階段的唯讀快照，供呈現層使用
type Snapshot struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id,omitempty"`
	State        State        `json:"state"`
	Ingredients  []string     `json:"ingredients"`
	Suggestions  []Suggestion `json:"suggestions"`
	Candidates   []Candidate  `json:"candidates"`
	CurrentIndex int          `json:"current_index"`
	HasNext      bool         `json:"has_next"`
	Detail       *Detail      `json:"detail,omitempty"`
	Error        string       `json:"error,omitempty"`
	Disliked     []string     `json:"disliked"`
}
