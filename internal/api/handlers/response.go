package handlers

import (
	"errors"
	"net/http"

	"greenerate/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// RespondError 將錯誤轉為 JSON 響應
func RespondError(c *gin.Context, err error) {
	RespondErrorWith(c, err, nil)
}

// RespondErrorWith 錯誤響應，附加額外欄位（例如目前的工作階段快照）
func RespondErrorWith(c *gin.Context, err error, extra gin.H) {
	ce, ok := common.AsCustomError(err)
	if !ok {
		ce = common.ErrInternalError.Wrap(err)
	}
	status := ce.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := gin.H{
		"code":  ce.Code,
		"error": ce.Message,
	}
	// 詳細信息僅在開發模式顯示
	if gin.IsDebugging() && ce.Err != nil {
		body["details"] = ce.Err.Error()
	}
	for k, v := range extra {
		body[k] = v
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// BindJSON 嚴格解析請求體；未知欄位視為格式錯誤
func BindJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return common.ErrInvalidRequest
	}
	err := common.DecodeJSONStrict(c.Request.Body, v)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.ErrPayloadTooLarge.Wrap(err)
	}
	return err
}

// BadRequest 請求格式錯誤；已分類的錯誤（例如請求體過大）保留原本的狀態碼
func BadRequest(c *gin.Context, err error) {
	if _, ok := common.AsCustomError(err); ok {
		RespondError(c, err)
		return
	}
	RespondError(c, common.ErrInvalidRequest.Wrap(err))
}
