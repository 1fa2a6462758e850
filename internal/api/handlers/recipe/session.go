package recipe

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"greenerate/internal/api/handlers"
	"greenerate/internal/api/middleware"
	recipeService "greenerate/internal/core/recipe"
	"greenerate/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddIngredientRequest 加入食材
type AddIngredientRequest struct {
	Name string `json:"name"`
}

// SessionResponse 工作階段快照
type SessionResponse struct {
	Session recipeService.Snapshot `json:"session"`
}

// SuggestionsResponse 自動完成結果；applied 為 false 代表已被較新的查詢取代
type SuggestionsResponse struct {
	Query       string                     `json:"query"`
	Suggestions []recipeService.Suggestion `json:"suggestions"`
	Applied     bool                       `json:"applied"`
}

// Handler 瀏覽工作階段處理程序
type Handler struct {
	sessions *recipeService.Service
}

// NewHandler 創建新的工作階段處理程序
func NewHandler(sessions *recipeService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// Register 註冊 /sessions 路由；generateGuards 只套用在 generate 上
func (h *Handler) Register(g *gin.RouterGroup, generateGuards ...gin.HandlerFunc) {
	generate := append(append([]gin.HandlerFunc{}, generateGuards...), h.HandleGenerate)

	g.POST("", h.HandleCreate)
	g.GET("/:id", h.HandleGet)
	g.DELETE("/:id", h.HandleDelete)
	g.POST("/:id/ingredients", h.HandleAddIngredient)
	g.DELETE("/:id/ingredients/:name", h.HandleRemoveIngredient)
	g.GET("/:id/suggestions", h.HandleSuggest)
	g.POST("/:id/generate", generate...)
	g.POST("/:id/next", h.HandleNext)
	g.POST("/:id/clear", h.HandleClear)
}

// HandleCreate 建立工作階段；偏好在此讀取一次
func (h *Handler) HandleCreate(c *gin.Context) {
	sess := h.sessions.Create(c.Request.Context(), middleware.UserID(c))
	c.JSON(http.StatusCreated, SessionResponse{Session: sess.Snapshot()})
}

// HandleGet 取得工作階段快照
func (h *Handler) HandleGet(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess.Snapshot()})
}

// HandleDelete 結束工作階段
func (h *Handler) HandleDelete(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(sess.ID); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddIngredient 加入食材；空白或重複時不變動
func (h *Handler) HandleAddIngredient(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req AddIngredientRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		handlers.BadRequest(c, err)
		return
	}

	added := sess.AddIngredient(req.Name)
	c.JSON(http.StatusOK, gin.H{
		"added":   added,
		"session": sess.Snapshot(),
	})
}

// HandleRemoveIngredient 移除食材
func (h *Handler) HandleRemoveIngredient(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	removed := sess.RemoveIngredient(trimmedParam(c, "name"))
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"session": sess.Snapshot(),
	})
}

// HandleSuggest 食材自動完成
func (h *Handler) HandleSuggest(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	query := c.Query("query")
	suggestions, applied := sess.Suggest(c.Request.Context(), query)
	c.JSON(http.StatusOK, SuggestionsResponse{
		Query:       query,
		Suggestions: suggestions,
		Applied:     applied,
	})
}

// HandleGenerate 依目前食材產生食譜並載入第一個結果
func (h *Handler) HandleGenerate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	common.LogInfo("開始處理食譜產生請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("session_id", sess.ID),
	)

	if _, err := sess.Generate(c.Request.Context()); err != nil {
		h.respondSessionError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess.Snapshot()})
}

// HandleNext 顯示下一個候選食譜
func (h *Handler) HandleNext(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := sess.Next(c.Request.Context()); err != nil {
		h.respondSessionError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess.Snapshot()})
}

// HandleClear 重設工作階段
func (h *Handler) HandleClear(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.Clear()
	c.JSON(http.StatusOK, SessionResponse{Session: sess.Snapshot()})
}

// InputRevision 去重用的範圍：工作階段目前的食材版本。
// 找不到工作階段時回傳空字串，交由後續處理程序回應 404。
func (h *Handler) InputRevision(c *gin.Context) string {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return ""
	}
	return strconv.FormatUint(sess.Revision(), 10)
}

// session 取得屬於目前使用者的工作階段；其他使用者的工作階段視為不存在
func (h *Handler) session(c *gin.Context) (*recipeService.Session, bool) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err == nil && sess.UserID != middleware.UserID(c) {
		err = recipeService.ErrSessionNotFound
	}
	if err != nil {
		handlers.RespondError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) respondSessionError(c *gin.Context, sess *recipeService.Session, err error) {
	if !errors.Is(err, recipeService.ErrSuperseded) {
		common.LogInfo("食譜操作未完成",
			zap.String("request_id", requestid.Get(c)),
			zap.String("session_id", sess.ID),
			zap.String("message", recipeService.UserMessage(err)),
		)
	}
	handlers.RespondErrorWith(c, err, gin.H{"session": sess.Snapshot()})
}

// AllergenResponse 類別與其標題關鍵字
type AllergenResponse struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// HandleAllergens 列出可選的不喜歡類別
func HandleAllergens(c *gin.Context) {
	out := make([]AllergenResponse, 0, len(recipeService.AllCategories))
	for _, cat := range recipeService.AllCategories {
		out = append(out, AllergenResponse{
			Name:     string(cat),
			Keywords: recipeService.Keywords(cat),
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// trimmedParam 去除前後空白的路徑參數
func trimmedParam(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Param(name))
}
