package service

import (
	"errors"
	"fmt"
	"time"
)

// 服务层哨兵错误，handler 据此映射错误码与 HTTP 状态
var (
	ErrInvalidEmail           = errors.New("邮箱格式不合法")
	ErrInvalidOtpCode         = errors.New("验证码格式不合法")
	ErrOtpNotFound            = errors.New("验证码不存在")
	ErrOtpExpired             = errors.New("验证码已过期")
	ErrOtpInvalid             = errors.New("验证码不正确")
	ErrOtpMaxAttemptsExceeded = errors.New("验证码尝试次数已用完")
	ErrTokenExpired           = errors.New("token 已过期")
	ErrTokenInvalid           = errors.New("无效的 token")
	ErrRefreshTokenInvalid    = errors.New("无效的刷新 token")
	ErrUserNotFound           = errors.New("用户不存在")
	ErrUserDisabled           = errors.New("账户已被禁用")

	ErrEmailSendFailed           = errors.New("邮件发送失败")
	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrEmailRecipientRejected    = errors.New("收件地址被拒绝")

	ErrCaptchaRequired      = errors.New("需要人机验证")
	ErrCaptchaInvalid       = errors.New("人机验证失败")
	ErrCaptchaConfigInvalid = errors.New("人机验证配置不合法")
)

// CooldownError 重发冷却未结束，RetryAfter 为剩余等待秒数
type CooldownError struct {
	RetryAfter int
	ResetTime  time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("验证码冷却中，%d 秒后可重新请求", e.RetryAfter)
}

// RateLimitError 固定窗口限流命中
type RateLimitError struct {
	RetryAfter int
	ResetTime  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("请求过于频繁，%d 秒后重试", e.RetryAfter)
}
