package auth

import (
	"errors"

	"github.com/atelier-academy/auth-service/internal/http/response"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedAuthError 业务错误到接口错误响应的映射关系
type mappedAuthError struct {
	target  error
	code    string
	message string
}

var authErrorRules = []mappedAuthError{
	{target: service.ErrInvalidEmail, code: response.CodeInvalidEmail, message: "Please enter a valid email address"},
	{target: service.ErrInvalidOtpCode, code: response.CodeInvalidOtpCode, message: "The code must match the expected format"},
	{target: service.ErrOtpNotFound, code: response.CodeOtpNotFound, message: "No active code for this email, request a new one"},
	{target: service.ErrOtpExpired, code: response.CodeOtpExpired, message: "The code has expired, request a new one"},
	{target: service.ErrOtpInvalid, code: response.CodeOtpInvalid, message: "Incorrect code, please try again"},
	{target: service.ErrOtpMaxAttemptsExceeded, code: response.CodeOtpMaxAttemptsExceeded, message: "Too many incorrect attempts, request a new code"},
	{target: service.ErrTokenExpired, code: response.CodeTokenExpired, message: "Session expired, please refresh or sign in again"},
	{target: service.ErrTokenInvalid, code: response.CodeTokenInvalid, message: "Invalid credentials, please sign in again"},
	{target: service.ErrRefreshTokenInvalid, code: response.CodeRefreshTokenInvalid, message: "Session is no longer valid, please sign in again"},
	{target: service.ErrUserNotFound, code: response.CodeUserNotFound, message: "Account not found"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, message: "This account has been disabled"},
	{target: service.ErrCaptchaRequired, code: response.CodeCaptchaRequired, message: "Please complete the captcha"},
	{target: service.ErrCaptchaInvalid, code: response.CodeCaptchaInvalid, message: "Captcha verification failed, please try again"},
	{target: service.ErrEmailSendFailed, code: response.CodeEmailSendFailed, message: "Could not send the email, please try again shortly"},
	{target: service.ErrEmailRecipientRejected, code: response.CodeInvalidEmail, message: "This email address cannot receive mail"},
	{target: service.ErrEmailServiceDisabled, code: response.CodeEmailSendFailed, message: "Email delivery is currently unavailable"},
	{target: service.ErrEmailServiceNotConfigured, code: response.CodeEmailSendFailed, message: "Email delivery is currently unavailable"},
}

// respondAuthError 统一下发认证业务错误
// 冷却与限流错误携带 retryAfter，未知错误记日志后按 500 处理
func respondAuthError(c *gin.Context, err error) {
	var cooldownErr *service.CooldownError
	if errors.As(err, &cooldownErr) {
		response.Fail(c, &response.AppError{
			Code:       response.CodeOtpCooldownActive,
			Message:    "A code was sent recently, please wait before requesting another",
			RetryAfter: cooldownErr.RetryAfter,
		})
		return
	}

	var rateErr *service.RateLimitError
	if errors.As(err, &rateErr) {
		response.Fail(c, &response.AppError{
			Code:       response.CodeRateLimitExceeded,
			Message:    "Too many requests, please slow down",
			RetryAfter: rateErr.RetryAfter,
		})
		return
	}

	for _, rule := range authErrorRules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.code, rule.message)
			return
		}
	}

	logger.Errorw("auth_handler_unexpected_error", "error", err)
	response.Error(c, response.CodeInternalServerError, "Internal server error")
}
