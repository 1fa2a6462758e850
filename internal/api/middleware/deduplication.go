package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenerate/internal/pkg/common"
)

// Deduplicator 在時間窗內拒絕重複的 POST 請求（例如連點「產生」）。
// 只掛在需要的路由上，不作為全域中間件。
type Deduplicator struct {
	window   time.Duration
	mu       sync.Mutex
	requests map[string]time.Time
	done     chan struct{}
	once     sync.Once
	now      func() time.Time
}

// NewDeduplicator 創建去重器並啟動自動清理
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go d.cleanupLoop(10 * time.Minute)
	return d
}

// Stop 停止清理 goroutine
func (d *Deduplicator) Stop() {
	d.once.Do(func() { close(d.done) })
}

func (d *Deduplicator) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.done:
			return
		}
	}
}

func (d *Deduplicator) cleanup() {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
}

// seen 記錄指紋，時間窗內重複時回傳 true
func (d *Deduplicator) seen(fingerprint string) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 請求去重中間件；指紋包含使用者、路徑與請求體。
// scope 可為 nil，否則其回傳值也納入指紋（例如資源目前的版本），版本改變後同樣的請求不再視為重複。
func (d *Deduplicator) Middleware(scope func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + c.GetHeader(UserIDHeader)
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}
		if scope != nil {
			fingerprint += ":" + scope(c)
		}

		if d.seen(fingerprint) {
			common.LogDebug("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("window", d.window),
			)
			c.AbortWithStatusJSON(common.ErrTooManyRequests.Status, gin.H{
				"error": common.ErrTooManyRequests.Message,
				"code":  common.ErrTooManyRequests.Code,
			})
			return
		}

		c.Next()
	}
}
