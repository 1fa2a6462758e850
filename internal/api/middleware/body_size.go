package middleware

import (
	"net/http"

	"greenerate/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BodySizeLimit 限制請求體大小。
// 宣告的 Content-Length 過大時直接拒絕；未宣告長度（chunked）的請求體在讀取超過上限時
// 由 handlers.BindJSON 轉為 ErrPayloadTooLarge。
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			common.LogWarn("請求體過大",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("user_id", UserID(c)),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(common.ErrPayloadTooLarge.Status, gin.H{
				"code":     common.ErrPayloadTooLarge.Code,
				"error":    common.ErrPayloadTooLarge.Message,
				"max_size": maxSize,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
