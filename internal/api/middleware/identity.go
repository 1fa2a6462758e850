package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader 上游驗證層注入的使用者識別
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// Identity 讀取 X-User-ID 並放入 context；驗證本身由上游負責
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(UserIDHeader)); uid != "" {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}

// UserID 目前請求的使用者，匿名時為空字串
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
