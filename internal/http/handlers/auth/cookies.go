package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/service"

	"github.com/gin-gonic/gin"
)

// RefreshCookiePath 刷新 cookie 仅随刷新请求携带
const RefreshCookiePath = "/api/v1/auth/refresh"

// cookieMode 调用方是否要求 cookie 传输 token
func cookieMode(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Auth-Method")), constants.AuthTransportCookie)
}

func (h *Handler) setAuthCookies(c *gin.Context, pair *service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	domain := h.Config.Token.CookieDomain
	secure := h.Config.Token.CookieSecure
	c.SetCookie(constants.CookieAccessToken, pair.AccessToken,
		maxAgeSeconds(pair.AccessExpiresAt), "/", domain, secure, true)
	c.SetCookie(constants.CookieRefreshToken, pair.RefreshToken,
		maxAgeSeconds(pair.RefreshExpiresAt), RefreshCookiePath, domain, secure, true)
}

func (h *Handler) setAccessCookie(c *gin.Context, accessToken string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.CookieAccessToken, accessToken,
		maxAgeSeconds(expiresAt), "/", h.Config.Token.CookieDomain, h.Config.Token.CookieSecure, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	domain := h.Config.Token.CookieDomain
	secure := h.Config.Token.CookieSecure
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", domain, secure, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, RefreshCookiePath, domain, secure, true)
}

func maxAgeSeconds(expiresAt time.Time) int {
	seconds := int(time.Until(expiresAt).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// refreshTokenFrom 依次尝试请求体与 cookie 中的刷新 token
func refreshTokenFrom(c *gin.Context, bodyToken string) string {
	if token := strings.TrimSpace(bodyToken); token != "" {
		return token
	}
	if token, err := c.Cookie(constants.CookieRefreshToken); err == nil {
		return strings.TrimSpace(token)
	}
	return ""
}
