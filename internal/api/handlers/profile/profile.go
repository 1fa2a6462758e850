package profile

import (
	"net/http"

	"greenerate/internal/api/handlers"
	"greenerate/internal/api/middleware"
	"greenerate/internal/core/preference"
	"greenerate/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateRequest 註冊流程建立的使用者檔案
type CreateRequest struct {
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Preferences []string `json:"preferences"`
}

// Handler 使用者檔案處理程序
type Handler struct {
	store preference.Store
}

// NewHandler 創建使用者檔案處理程序
func NewHandler(store preference.Store) *Handler {
	return &Handler{store: store}
}

// Register 註冊 /users/:uid/profile 路由
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/:uid/profile", h.HandleGet)
	g.POST("/:uid/profile", h.HandleCreate)
	g.PUT("/:uid/profile", h.HandleUpdate)
}

// HandleGet 讀取檔案
func (h *Handler) HandleGet(c *gin.Context) {
	uid, ok := authorize(c)
	if !ok {
		return
	}
	p, err := h.store.Get(c.Request.Context(), uid)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// HandleCreate 建立或覆寫檔案
func (h *Handler) HandleCreate(c *gin.Context) {
	uid, ok := authorize(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	p, err := h.store.Create(c.Request.Context(), &preference.Profile{
		UserID:      uid,
		Email:       req.Email,
		Username:    req.Username,
		Preferences: req.Preferences,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("使用者檔案已建立",
		zap.String("request_id", requestid.Get(c)),
		zap.String("user_id", uid),
		zap.Strings("preferences", p.Preferences),
	)
	c.JSON(http.StatusCreated, p)
}

// HandleUpdate 合併更新 username 與 preferences
func (h *Handler) HandleUpdate(c *gin.Context) {
	uid, ok := authorize(c)
	if !ok {
		return
	}

	var req preference.Update
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	p, err := h.store.Update(c.Request.Context(), uid, req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// authorize 只允許使用者存取自己的檔案
func authorize(c *gin.Context) (string, bool) {
	caller := middleware.UserID(c)
	if caller == "" {
		handlers.RespondError(c, common.ErrUnauthorized)
		return "", false
	}
	uid := c.Param("uid")
	if caller != uid {
		handlers.RespondError(c, common.ErrForbidden)
		return "", false
	}
	return uid, true
}
