package response

import "net/http"

// 错误码，随 error.code 原样下发
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeInvalidOtpCode         = "INVALID_OTP_CODE"
	CodeOtpNotFound            = "OTP_NOT_FOUND"
	CodeOtpExpired             = "OTP_EXPIRED"
	CodeOtpInvalid             = "OTP_INVALID"
	CodeOtpMaxAttemptsExceeded = "OTP_MAX_ATTEMPTS_EXCEEDED"
	CodeOtpCooldownActive      = "OTP_COOLDOWN_ACTIVE"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeRefreshTokenInvalid    = "REFRESH_TOKEN_INVALID"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeCaptchaRequired        = "CAPTCHA_REQUIRED"
	CodeCaptchaInvalid         = "CAPTCHA_INVALID"
	CodeEmailSendFailed        = "EMAIL_SEND_FAILED"
	CodeDatabaseError          = "DATABASE_ERROR"
	CodeInternalServerError    = "INTERNAL_SERVER_ERROR"
)

var codeStatus = map[string]int{
	CodeValidationError:        http.StatusBadRequest,
	CodeInvalidEmail:           http.StatusBadRequest,
	CodeInvalidOtpCode:         http.StatusBadRequest,
	CodeOtpNotFound:            http.StatusBadRequest,
	CodeOtpExpired:             http.StatusBadRequest,
	CodeOtpInvalid:             http.StatusBadRequest,
	CodeOtpMaxAttemptsExceeded: http.StatusBadRequest,
	CodeOtpCooldownActive:      http.StatusTooManyRequests,
	CodeTokenExpired:           http.StatusUnauthorized,
	CodeTokenInvalid:           http.StatusUnauthorized,
	CodeRefreshTokenInvalid:    http.StatusUnauthorized,
	CodeUnauthorized:           http.StatusUnauthorized,
	// token 有效但账号已不存在同样视为未认证
	CodeUserNotFound:           http.StatusUnauthorized,
	CodeRateLimitExceeded:      http.StatusTooManyRequests,
	CodeCaptchaRequired:        http.StatusBadRequest,
	CodeCaptchaInvalid:         http.StatusBadRequest,
	CodeEmailSendFailed:        http.StatusBadGateway,
	CodeDatabaseError:          http.StatusInternalServerError,
	CodeInternalServerError:    http.StatusInternalServerError,
}

// StatusOf 返回错误码对应的 HTTP 状态
func StatusOf(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
