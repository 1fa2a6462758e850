package recipe

import (
	"regexp"
	"strings"
)

// NoInstructionsPlaceholder 缺少作法時使用的文字
const NoInstructionsPlaceholder = "No instructions available."

const bullet = "• "

var (
	markupPattern       = regexp.MustCompile(`<[^>]*>`)
	sentenceGluePattern = regexp.MustCompile(`\.([A-Z])`)
	listMarkerPattern   = regexp.MustCompile(`^[-•]\s*`)
)

// StripHTML 移除所有標籤，不補空白（相鄰文字可能黏在一起）
func StripHTML(html string) string {
	return markupPattern.ReplaceAllString(html, "")
}

// FormatInstructions 在「.」緊接大寫字母處斷行，每段加上項目符號，段落間空一行
func FormatInstructions(text string) string {
	text = sentenceGluePattern.ReplaceAllString(text, ".\n$1")

	var steps []string
	for _, step := range strings.Split(text, "\n") {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		steps = append(steps, bullet+step)
	}
	return strings.Join(steps, "\n\n")
}

// CleanIngredientLine 去掉開頭的 "-" 或 "•" 及其後空白
func CleanIngredientLine(line string) string {
	return listMarkerPattern.ReplaceAllString(line, "")
}

// BuildDetail 由服務回傳的原始資料組出可顯示的詳細資料
func BuildDetail(id int, title, imageURL string, instructions *string, ingredientLines []string) *Detail {
	raw := NoInstructionsPlaceholder
	if instructions != nil && *instructions != "" {
		raw = *instructions
	}

	lines := make([]string, len(ingredientLines))
	for i, l := range ingredientLines {
		lines[i] = CleanIngredientLine(l)
	}

	return &Detail{
		ID:              id,
		Title:           title,
		ImageURL:        imageURL,
		IngredientLines: lines,
		Instructions:    FormatInstructions(StripHTML(raw)),
	}
}
