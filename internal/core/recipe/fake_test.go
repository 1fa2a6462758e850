package recipe

import (
	"context"
	"errors"
	"sync"

	"greenerate/internal/pkg/common"
)

// fakeSource 可程式化的食譜服務
type fakeSource struct {
	mu sync.Mutex

	suggestions    map[string][]common.Suggestion
	suggestErr     error
	candidates     []common.RecipeCandidate
	candidatesErr  error
	details        map[int]*common.RecipeInformation
	detailErr      map[int]error
	findCalls      int
	detailCalls    []int
	suggestCalls   []string
	lastIngredient []string

	// 若設定，Autocomplete 會等待對應 channel 關閉或 ctx 取消才回傳
	gates map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		suggestions: map[string][]common.Suggestion{},
		details:     map[int]*common.RecipeInformation{},
		detailErr:   map[int]error{},
		gates:       map[string]chan struct{}{},
	}
}

func (f *fakeSource) Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error) {
	f.mu.Lock()
	f.suggestCalls = append(f.suggestCalls, query)
	gate := f.gates[query]
	res, err := f.suggestions[query], f.suggestErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *fakeSource) FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	f.lastIngredient = append([]string(nil), ingredients...)
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}
	return append([]common.RecipeCandidate(nil), f.candidates...), nil
}

func (f *fakeSource) RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls = append(f.detailCalls, id)
	if err := f.detailErr[id]; err != nil {
		return nil, err
	}
	info, ok := f.details[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *info
	return &cp, nil
}

func strPtr(s string) *string { return &s }
