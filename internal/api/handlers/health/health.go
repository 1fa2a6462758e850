package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"greenerate/internal/core/spoonacular"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Sessions  int                    `json:"sessions"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Upstream  *spoonacular.Status    `json:"upstream,omitempty"`
}

// SessionCounter 目前工作階段數量
type SessionCounter interface {
	Count() int
}

// CacheStats 快取統計
type CacheStats interface {
	GetStats() map[string]interface{}
}

// UpstreamStatus 上游呼叫佇列狀態
type UpstreamStatus interface {
	Status() spoonacular.Status
}

// Check 就緒檢查項目，例如 Redis ping
type Check func(ctx context.Context) error

// Handler 健康檢查處理器
type Handler struct {
	cfg      *config.Config
	sessions SessionCounter
	cache    CacheStats
	upstream UpstreamStatus
	checks   map[string]Check
}

// NewHandler 創建健康檢查處理器；cache、upstream 與 checks 可為 nil
func NewHandler(cfg *config.Config, sessions SessionCounter, cache CacheStats, upstream UpstreamStatus, checks map[string]Check) *Handler {
	return &Handler{cfg: cfg, sessions: sessions, cache: cache, upstream: upstream, checks: checks}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Sessions: h.sessions.Count(),
	}
	if h.cache != nil {
		response.Cache = h.cache.GetStats()
	}
	if h.upstream != nil {
		status := h.upstream.Status()
		response.Upstream = &status
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 依序執行就緒檢查，任一失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			ready = false
			results[name] = err.Error()
			common.LogWarn("Readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		c.JSON(common.ErrServiceUnavailable.Status, gin.H{
			"status": "not_ready",
			"code":   common.ErrServiceUnavailable.Code,
			"error":  common.ErrServiceUnavailable.Message,
			"checks": results,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": results,
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
