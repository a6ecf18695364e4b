package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 成功响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// Error 按错误码下发错误响应，HTTP 状态由错误码决定
func Error(c *gin.Context, code, message string) {
	Fail(c, &AppError{Code: code, Message: message})
}

// Fail 下发包装后的错误
func Fail(c *gin.Context, appErr *AppError) {
	if appErr == nil {
		appErr = &AppError{Code: CodeInternalServerError, Message: "Internal server error"}
	}
	status := StatusOf(appErr.Code)
	if appErr.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%d", appErr.RetryAfter))
	}
	c.JSON(status, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:       appErr.Code,
			Message:    appErr.Message,
			RetryAfter: appErr.RetryAfter,
			RequestID:  requestIDFrom(c),
		},
	})
}

// FailWithError 透传错误：AppError 原样下发，其余按 500 处理
func FailWithError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		Fail(c, appErr)
		return
	}
	Fail(c, &AppError{Code: CodeInternalServerError, Message: "Internal server error", Err: err})
}

// Unauthorized 401 响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, CodeUnauthorized, message)
}

func requestIDFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
