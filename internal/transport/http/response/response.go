package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/apperr"
)

// ErrBody 错误响应体：{"error": "..."}
type ErrBody struct {
	Error string `json:"error"`
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) ErrBody {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return ErrBody{Error: msg}
}

// Abort 中断并写错误
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Error(code, msg))
}

// Fail 把 service 返回的错误映射为状态码；非 apperr 一律 500 且不回显内部信息
func Fail(c *gin.Context, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind != apperr.KindInternal {
		code := ae.StatusCode()
		c.JSON(code, Error(code, ae.Error()))
		return
	}
	_ = c.Error(err)
	c.JSON(CodeServerError, Error(CodeServerError, ""))
}

// OK 成功响应直接输出实体
func OK(c *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}
