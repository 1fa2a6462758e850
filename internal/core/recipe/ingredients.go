package recipe

import "strings"

// IngredientSet 保持插入順序且不重複的食材集合
type IngredientSet struct {
	items []string
}

// NewIngredientSet 以初始食材建立集合，套用與 Add 相同的規則
func NewIngredientSet(names ...string) *IngredientSet {
	s := &IngredientSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add 去除前後空白後加入；空字串或已存在（完全相同）則不變。回傳是否有變動
func (s *IngredientSet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || s.Contains(name) {
		return false
	}
	s.items = append(s.items, name)
	return true
}

// Remove 移除完全相符的食材；不存在則不變。回傳是否有變動
func (s *IngredientSet) Remove(name string) bool {
	for i, item := range s.items {
		if item == name {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains 是否已包含
func (s *IngredientSet) Contains(name string) bool {
	for _, item := range s.items {
		if item == name {
			return true
		}
	}
	return false
}

// Items 回傳副本
func (s *IngredientSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len 食材數量
func (s *IngredientSet) Len() int {
	return len(s.items)
}

// Reset 清空
func (s *IngredientSet) Reset() {
	s.items = nil
}
