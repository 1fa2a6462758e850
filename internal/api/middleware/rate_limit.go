package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
	now      func() time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		now:      time.Now,
	}
	rl.lastTime = rl.now()
	return rl
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now

	// 補充令牌（保留小數部分，避免高頻請求時永遠補不到）
	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}

	// 檢查是否有可用令牌
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// clientLimiters 每個用戶端 IP 一個限流器
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*RateLimiter
	requests int
	window   time.Duration
}

func (cl *clientLimiters) get(key string) *RateLimiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	rl, ok := cl.limiters[key]
	if !ok {
		rl = NewRateLimiter(cl.requests, cl.window)
		cl.limiters[key] = rl
	}
	return rl
}

// RateLimit 依用戶端 IP 限流的中間件
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := &clientLimiters{
		limiters: make(map[string]*RateLimiter),
		requests: cfg.Requests,
		window:   cfg.Window,
	}

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":        common.ErrCodeTooManyRequests,
				"error":       common.ErrTooManyRequests.Message,
				"retry_after": cfg.Window.Seconds(),
			})
			return
		}

		c.Next()
	}
}
