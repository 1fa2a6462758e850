package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenerate/internal/api"
	"greenerate/internal/app"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("spoonacular_api_key", config.MaskAPIKey(cfg.Spoonacular.APIKey)),
		zap.String("spoonacular_base_url", cfg.Spoonacular.BaseURL),
		zap.String("store_driver", cfg.Store.Driver),
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	components, err := app.Build(initCtx, cfg)
	initCancel()
	if err != nil {
		common.LogFatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// 設置路由
	router, stopRouter, err := api.SetupRouter(cfg, api.Dependencies{
		Sessions:    components.Sessions,
		Preferences: components.Preferences,
		Cache:       components.CacheStats,
		Upstream:    components.Client,
		Checks:      components.ReadinessChecks(),
	})
	if err != nil {
		common.LogFatal("Failed to setup router", zap.Error(err))
	}
	defer stopRouter()

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
