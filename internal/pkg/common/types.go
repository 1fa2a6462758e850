package common

// Suggestion 食材自動完成建議
type Suggestion struct {
	Name string `json:"name"`
}

// RecipeCandidate 依食材找到、尚未過濾的候選食譜
type RecipeCandidate struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}

// RecipeInformation 外部服務回傳的食譜詳細資料（未格式化）
type RecipeInformation struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	ImageURL        string   `json:"image_url,omitempty"`
	Instructions    *string  `json:"instructions"`
	IngredientLines []string `json:"ingredient_lines"`
}

// RecipeDetail 可直接顯示的食譜詳細資料
type RecipeDetail struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	ImageURL        string   `json:"image_url,omitempty"`
	IngredientLines []string `json:"ingredient_lines"`
	Instructions    string   `json:"instructions"`
}

// CandidateIDs 取出候選食譜 ID（用於日誌）
func CandidateIDs(candidates []RecipeCandidate) []int {
	ids := make([]int, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}

// SuggestionNames 將建議轉成名稱列表
func SuggestionNames(suggestions []Suggestion) []string {
	names := make([]string, len(suggestions))
	for i, s := range suggestions {
		names[i] = s.Name
	}
	return names
}
