// Package app 依設定組裝外部服務、快取、偏好儲存與工作階段服務
package app

import (
	"context"
	"fmt"

	"greenerate/internal/api/handlers/health"
	"greenerate/internal/core/cache"
	"greenerate/internal/core/preference"
	"greenerate/internal/core/recipe"
	"greenerate/internal/core/spoonacular"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Components 已組裝的元件；Close 依建立的相反順序釋放
type Components struct {
	Redis       *redis.Client
	Cache       cache.Store
	CacheStats  health.CacheStats
	Client      *spoonacular.Client
	Source      spoonacular.API
	Preferences preference.Store
	Sessions    *recipe.Service
}

// Build 依設定建立所有元件
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	c := &Components{}

	if needsRedis(cfg) {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Spoonacular.APIKey == "" {
		common.LogWarn("SPOONACULAR_API_KEY is empty; recipe lookups will be rejected upstream")
	}
	c.Client = spoonacular.NewClient(cfg.Spoonacular)
	c.Source = c.Client

	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case "redis":
			store, err := cache.NewRedisStore(ctx, c.Redis, cfg.Cache.TTL)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
			}
			c.Cache = store
		default:
			manager := cache.NewManager(cfg.Cache)
			c.Cache = manager
			c.CacheStats = manager
		}
		c.Source = spoonacular.NewCachedClient(c.Client, c.Cache)
	}

	prefs, err := preference.NewStore(ctx, cfg.Store, c.Redis)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize preference store: %w", err)
	}
	c.Preferences = prefs

	c.Sessions = recipe.NewService(c.Source, c.Preferences, recipe.ServiceOptions{
		SuggestionLimit: cfg.Spoonacular.AutocompleteLimit,
		CandidateLimit:  cfg.Spoonacular.CandidateLimit,
		IdleTTL:         cfg.Session.IdleTTL,
		SweepInterval:   cfg.Session.SweepInterval,
	})

	common.LogInfo("Components initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("redis", c.Redis != nil),
	)
	return c, nil
}

// ReadinessChecks 供 /ready 使用的檢查項目
func (c *Components) ReadinessChecks() map[string]health.Check {
	checks := map[string]health.Check{}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	if c.Preferences != nil {
		checks["preferences"] = func(ctx context.Context) error {
			_, err := c.Preferences.Preferences(ctx, "__readiness__")
			return err
		}
	}
	return checks
}

// Close 釋放所有元件
func (c *Components) Close() {
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	if c.Preferences != nil {
		if err := c.Preferences.Close(); err != nil {
			common.LogWarn("Failed to close preference store", zap.Error(err))
		}
	}
	if c.Cache != nil {
		c.Cache.Close()
	}
	if c.Client != nil {
		c.Client.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			common.LogWarn("Failed to close redis client", zap.Error(err))
		}
	}
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Store.Driver == "redis" || (cfg.Cache.Enabled && cfg.Cache.Backend == "redis")
}
