// Package spoonacular 實作食譜查詢服務的 HTTP 客戶端
package spoonacular

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// API 食譜查詢服務提供的三個操作
type API interface {
	Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error)
	FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error)
	RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error)
}

var (
	_ API = (*Client)(nil)
	_ API = (*CachedClient)(nil)
)

// Client Spoonacular REST 客戶端
type Client struct {
	client *resty.Client
	queue  *callQueue
}

// NewClient 創建 Spoonacular 客戶端
func NewClient(cfg config.SpoonacularConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetQueryParam("apiKey", cfg.APIKey).
		SetHeader("Accept", "application/json")

	common.LogInfo("Spoonacular client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("key", config.MaskAPIKey(cfg.APIKey)),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
	)

	return &Client{client: client, queue: newCallQueue(cfg.MaxConcurrent)}
}

// Autocomplete 食材名稱自動完成
func (c *Client) Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error) {
	body, err := c.get(ctx, "/food/ingredients/autocomplete", map[string]string{
		"query":  query,
		"number": strconv.Itoa(number),
	})
	if err != nil {
		return nil, err
	}
	return parseSuggestions(body)
}

// FindByIngredients 依食材查詢候選食譜，保留服務端排序
func (c *Client) FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error) {
	body, err := c.get(ctx, "/recipes/findByIngredients", map[string]string{
		"ingredients": strings.Join(ingredients, ","),
		"number":      strconv.Itoa(number),
	})
	if err != nil {
		return nil, err
	}
	return parseCandidates(body)
}

// RecipeInformation 取得單一食譜的詳細資料
func (c *Client) RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error) {
	body, err := c.get(ctx, fmt.Sprintf("/recipes/%d/information", id), map[string]string{
		"includeNutrition": "false",
	})
	if err != nil {
		return nil, err
	}
	return parseInformation(body, id)
}

// get 發送 GET 請求並回傳成功的回應內容
func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	start := time.Now()

	if err := c.queue.acquire(ctx); err != nil {
		return nil, common.ErrUpstream.Wrap(fmt.Errorf("waiting for %s: %w", path, err))
	}
	defer c.queue.release()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		err = common.ErrUpstream.Wrap(fmt.Errorf("request %s: %w", path, err))
		common.LogUpstreamCall(path, time.Since(start), err)
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		err = common.ErrUpstream.Wrap(fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode(), truncate(resp.String(), 200)))
		common.LogUpstreamCall(path, time.Since(start), err)
		return nil, err
	}

	common.LogUpstreamCall(path, time.Since(start), nil)
	return resp.Body(), nil
}

// Status 上游呼叫佇列狀態
func (c *Client) Status() Status {
	return c.queue.status()
}

// Close 關閉閒置連線
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
