package spoonacular

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"greenerate/internal/core/cache"
	"greenerate/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	kindAutocomplete = "autocomplete"
	kindCandidates   = "candidates"
	kindDetail       = "detail"

	// 合併後的下游呼叫不跟隨任何單一呼叫者取消，只受此時限約束
	flightTimeout = 30 * time.Second
)

// CachedClient 在 API 前加上快取，並合併同時進行的相同查詢
type CachedClient struct {
	next  API
	store cache.Store
	group singleflight.Group
}

// NewCachedClient 創建帶快取的客戶端
func NewCachedClient(next API, store cache.Store) *CachedClient {
	return &CachedClient{next: next, store: store}
}

// Autocomplete 帶快取的自動完成
func (c *CachedClient) Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error) {
	key := strings.ToLower(query) + "|" + strconv.Itoa(number)
	var out []common.Suggestion
	err := c.do(ctx, kindAutocomplete, key, &out, func(ctx context.Context) (interface{}, error) {
		return c.next.Autocomplete(ctx, query, number)
	})
	return out, err
}

// FindByIngredients 帶快取的候選查詢
func (c *CachedClient) FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error) {
	key := strings.Join(ingredients, ",") + "|" + strconv.Itoa(number)
	var out []common.RecipeCandidate
	err := c.do(ctx, kindCandidates, key, &out, func(ctx context.Context) (interface{}, error) {
		return c.next.FindByIngredients(ctx, ingredients, number)
	})
	return out, err
}

// RecipeInformation 帶快取的詳細資料查詢
func (c *CachedClient) RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error) {
	var out common.RecipeInformation
	err := c.do(ctx, kindDetail, strconv.Itoa(id), &out, func(ctx context.Context) (interface{}, error) {
		return c.next.RecipeInformation(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// do 先查快取，未命中時透過 singleflight 呼叫下游並寫回快取。
// 下游呼叫使用脫離呼叫者取消的 context；每個呼叫者只因自己的 ctx 結束而提早返回。
func (c *CachedClient) do(ctx context.Context, kind, key string, dst interface{}, fetch func(ctx context.Context) (interface{}, error)) error {
	if raw, err := c.store.Get(ctx, kind, key); err == nil {
		if err := common.ParseJSON(raw, dst); err == nil {
			return nil
		}
		common.LogWarn("快取內容無法解析，改為重新查詢", zap.String("類型", kind))
	} else if !errors.Is(err, common.ErrCacheMiss) {
		common.LogWarn("快取讀取失敗", zap.String("類型", kind), zap.Error(err))
	}

	flight := c.group.DoChan(kind+":"+key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		res, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		data, err := common.ToJSON(res)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s response: %w", kind, err)
		}
		if err := c.store.Set(fctx, kind, key, data); err != nil {
			common.LogWarn("快取寫入失敗", zap.String("類型", kind), zap.Error(err))
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return common.ErrUpstream.Wrap(fmt.Errorf("waiting for %s: %w", kind, ctx.Err()))
	case res := <-flight:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			common.LogDebug("合併重複查詢", zap.String("類型", kind))
		}
		return common.ParseJSON(res.Val.(string), dst)
	}
}
