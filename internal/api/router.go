package api

import (
	"fmt"
	"time"

	"greenerate/internal/api/handlers"
	"greenerate/internal/api/handlers/health"
	"greenerate/internal/api/handlers/profile"
	recipeHandler "greenerate/internal/api/handlers/recipe"
	"greenerate/internal/api/middleware"
	"greenerate/internal/core/preference"
	recipeService "greenerate/internal/core/recipe"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置（Generate 需要兩次外部呼叫）
	timeoutDuration = 60 * time.Second
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Sessions    *recipeService.Service
	Preferences preference.Store

	// 可選
	Cache    health.CacheStats
	Upstream health.UpstreamStatus
	Checks   map[string]health.Check
}

// SetupRouter 設置路由；回傳的 stop 需在關閉伺服器後呼叫
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, func(), error) {
	if deps.Sessions == nil || deps.Preferences == nil {
		return nil, nil, fmt.Errorf("router requires session service and preference store")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Identity())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Timeout(timeoutDuration))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Sessions, deps.Cache, deps.Upstream, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	router.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, common.ErrNotFound)
	})

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit))
	{
		api.GET("/allergens", recipeHandler.HandleAllergens)

		sessions := recipeHandler.NewHandler(deps.Sessions)
		sessions.Register(api.Group("/sessions"), dedup.Middleware(sessions.InputRevision))

		users := api.Group("/users")
		profile.NewHandler(deps.Preferences).Register(users)
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, dedup.Stop, nil
}
