package recipe

import (
	"net/http"

	"greenerate/internal/pkg/common"
)

// 使用者可見的錯誤，Message 即畫面顯示文字
var (
	ErrNoIngredients   = common.NewError("NO_INGREDIENTS", "Please add ingredients first!", http.StatusBadRequest, nil)
	ErrNoRecipes       = common.NewError("NO_RECIPES", "No recipes found.", http.StatusOK, nil)
	ErrAllFiltered     = common.NewError("NO_RECIPES_AFTER_FILTER", "No recipes found after filtering preferences.", http.StatusOK, nil)
	ErrFetchFailed     = common.NewError("FETCH_FAILED", "Something went wrong. Please try again.", http.StatusBadGateway, nil)
	ErrDetailFailed    = common.NewError("DETAIL_FAILED", "Failed to load recipe details.", http.StatusBadGateway, nil)
	ErrNoMoreRecipes   = common.NewError("NO_MORE_RECIPES", "No more recipes.", http.StatusConflict, nil)
	ErrBusy            = common.NewError("SESSION_BUSY", "A request is already in progress.", http.StatusConflict, nil)
	ErrSuperseded      = common.NewError("SUPERSEDED", "Request superseded by a newer one.", http.StatusConflict, nil)
	ErrSessionNotFound = common.NewError(common.ErrCodeNotFound, "Session not found.", http.StatusNotFound, nil)
	ErrUnknownAllergen = common.NewError("UNKNOWN_ALLERGEN", "Unknown allergen category.", http.StatusBadRequest, nil)
)

// UserMessage 將錯誤轉為使用者可見的文字
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := common.AsCustomError(err); ok {
		return ce.Message
	}
	return ErrFetchFailed.Message
}
