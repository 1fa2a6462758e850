package recipe

import (
	"fmt"
	"strings"
)

// AllergenCategory 過敏原/不喜歡的食物類別（封閉集合）
type AllergenCategory string

const (
	Wheat     AllergenCategory = "Wheat"
	Dairy     AllergenCategory = "Dairy"
	Nuts      AllergenCategory = "Nuts"
	Shellfish AllergenCategory = "Shellfish"
	Fish      AllergenCategory = "Fish"
	Soy       AllergenCategory = "Soy"
	Eggs      AllergenCategory = "Eggs"
)

// AllCategories 依顯示順序列出所有類別
var AllCategories = []AllergenCategory{Wheat, Dairy, Nuts, Shellfish, Fish, Soy, Eggs}

// allergenKeywords 標題比對用的小寫關鍵字（子字串比對，非單字邊界）
var allergenKeywords = map[AllergenCategory][]string{
	Wheat:     {"wheat", "flour", "bread", "pasta", "noodles"},
	Dairy:     {"milk", "cheese", "butter", "cream", "yogurt"},
	Nuts:      {"almond", "peanut", "cashew", "hazelnut", "walnut"},
	Shellfish: {"shrimp", "crab", "lobster", "scallop"},
	Fish:      {"salmon", "tuna", "sardine", "cod", "trout"},
	Soy:       {"soy", "tofu", "soybean", "edamame"},
	Eggs:      {"egg", "eggs", "mayonnaise"},
}

// Keywords 回傳類別的關鍵字副本；未知類別回傳 nil
func Keywords(c AllergenCategory) []string {
	kw, ok := allergenKeywords[c]
	if !ok {
		return nil
	}
	out := make([]string, len(kw))
	copy(out, kw)
	return out
}

// Valid 是否為已知類別
func (c AllergenCategory) Valid() bool {
	_, ok := allergenKeywords[c]
	return ok
}

// ParseCategories 將儲存的名稱轉為類別；未知名稱略過（不貢獻任何關鍵字）
func ParseCategories(names []string) []AllergenCategory {
	out := make([]AllergenCategory, 0, len(names))
	for _, n := range names {
		c := AllergenCategory(n)
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// ValidateCategories 寫入偏好前的驗證，遇到未知名稱回傳錯誤
func ValidateCategories(names []string) error {
	for _, n := range names {
		if !AllergenCategory(n).Valid() {
			return ErrUnknownAllergen.Wrap(fmt.Errorf("%q", n))
		}
	}
	return nil
}

// CategoryNames 轉回字串
func CategoryNames(cats []AllergenCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// MatchesDisliked 標題（轉小寫後）是否包含任一不喜歡類別的關鍵字
func MatchesDisliked(title string, disliked []AllergenCategory) bool {
	lower := strings.ToLower(title)
	for _, c := range disliked {
		for _, kw := range allergenKeywords[c] {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// Filter 回傳保留原順序、排除不喜歡類別後的子序列
func Filter(candidates []Candidate, disliked []AllergenCategory) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !MatchesDisliked(c.Title, disliked) {
			out = append(out, c)
		}
	}
	return out
}
