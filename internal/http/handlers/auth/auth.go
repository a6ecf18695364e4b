package auth

import (
	"time"

	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/http/response"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestOtpRequest 请求验证码入参
type RequestOtpRequest struct {
	Email       string `json:"email" binding:"required"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// RequestOtp 发送登录验证码
func (h *Handler) RequestOtp(c *gin.Context) {
	var req RequestOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeValidationError, "Request body must include an email")
		return
	}

	if h.CaptchaService != nil {
		payload := service.CaptchaVerifyPayload{CaptchaID: req.CaptchaID, CaptchaCode: req.CaptchaCode}
		if err := h.CaptchaService.Verify(constants.CaptchaSceneRequestOtp, payload); err != nil {
			respondAuthError(c, err)
			return
		}
	}

	result, err := h.AuthService.RequestCode(service.RequestCodeInput{
		Email:    req.Email,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	response.SuccessWithMsg(c, "Verification code sent", gin.H{
		"email":            result.Email,
		"expiresInMinutes": result.ExpiresInMinutes,
		"cooldownSeconds":  result.CooldownSeconds,
	})
}

// VerifyOtpRequest 校验验证码入参
type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOtp 校验验证码并登录
// X-Auth-Method: cookie 时 token 写入 cookie，响应体不回传
func (h *Handler) VerifyOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeValidationError, "Request body must include an email and a code")
		return
	}

	result, err := h.AuthService.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	data := gin.H{
		"user":      userPayload(result.User),
		"isNewUser": result.IsNewUser,
	}
	if cookieMode(c) {
		h.setAuthCookies(c, result.Tokens)
	} else {
		data["tokens"] = gin.H{
			"accessToken":      result.Tokens.AccessToken,
			"refreshToken":     result.Tokens.RefreshToken,
			"expiresIn":        expiresInSeconds(result.Tokens.AccessExpiresAt),
			"refreshExpiresIn": expiresInSeconds(result.Tokens.RefreshExpiresAt),
		}
	}
	response.Success(c, data)
}

// RefreshRequest 刷新入参，token 也可经 cookie 携带
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh 用刷新 token 换取新的访问 token
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	refreshToken := refreshTokenFrom(c, req.RefreshToken)
	if refreshToken == "" {
		response.Error(c, response.CodeRefreshTokenInvalid, "Missing refresh token")
		return
	}

	result, err := h.AuthService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	data := gin.H{"expiresIn": expiresInSeconds(result.AccessExpiresAt)}
	if cookieMode(c) {
		h.setAccessCookie(c, result.AccessToken, result.AccessExpiresAt)
	} else {
		data["accessToken"] = result.AccessToken
	}
	response.Success(c, data)
}

// Me 返回当前登录用户
func (h *Handler) Me(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Sign in to continue")
		return
	}

	user, err := h.AuthService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, gin.H{"user": userPayload(user)})
}

// LogoutRequest 登出入参
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout 吊销刷新 token，始终返回成功
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if refreshToken := refreshTokenFrom(c, req.RefreshToken); refreshToken != "" {
		h.AuthService.Logout(c.Request.Context(), refreshToken)
	}
	if cookieMode(c) {
		h.clearAuthCookies(c)
	}
	response.SuccessWithMsg(c, "Signed out", nil)
}

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, challenge)
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":                user.ID,
		"email":             user.Email,
		"display_name":      user.DisplayName,
		"status":            user.Status,
		"email_verified_at": user.EmailVerifiedAt,
		"last_login_at":     user.LastLoginAt,
		"created_at":        user.CreatedAt,
	}
}

func expiresInSeconds(expiresAt time.Time) int {
	seconds := int(time.Until(expiresAt).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}
