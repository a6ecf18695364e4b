package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/repository"
	"github.com/atelier-academy/auth-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type authMiddlewareFixture struct {
	router   *gin.Engine
	tokens   *service.TokenService
	userRepo repository.UserRepository
	user     *models.User
	disabled *models.User
}

func setupAuthMiddlewareTest(t *testing.T) *authMiddlewareFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:auth_mw_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RevokedToken{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	user := &models.User{Email: "active@example.com", Status: constants.UserStatusActive}
	disabled := &models.User{Email: "frozen@example.com", Status: constants.UserStatusDisabled}
	for _, u := range []*models.User{user, disabled} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user failed: %v", err)
		}
	}

	cfg := &config.Config{
		Token: config.TokenConfig{
			Secret:              "router-test-secret-0123456789abcdef0123",
			AccessExpireMinutes: 15,
			RefreshExpireDays:   7,
		},
	}
	tokens := service.NewTokenService(cfg, repository.NewRevokedTokenRepository(db))
	userRepo := repository.NewUserRepository(db)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, userRepo), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	return &authMiddlewareFixture{router: r, tokens: tokens, userRepo: userRepo, user: user, disabled: disabled}
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error response failed: %v", err)
	}
	if resp.Success {
		t.Fatalf("error response must not be successful")
	}
	return resp.Error.Code
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	fixture := setupAuthMiddlewareTest(t)

	pair, err := fixture.tokens.Issue(fixture.user)
	if err != nil {
		t.Fatalf("issue tokens failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	fixture.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		UserID uint `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.UserID != fixture.user.ID {
		t.Fatalf("user_id want %d got %d", fixture.user.ID, resp.UserID)
	}
}

func TestAuthMiddlewareCookieToken(t *testing.T) {
	fixture := setupAuthMiddlewareTest(t)

	pair, err := fixture.tokens.Issue(fixture.user)
	if err != nil {
		t.Fatalf("issue tokens failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.CookieAccessToken, Value: pair.AccessToken})
	fixture.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("cookie token should authenticate, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	fixture := setupAuthMiddlewareTest(t)

	// 缺少 token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	fixture.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token want 401 got %d", w.Code)
	}

	// 非法 token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	fixture.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token want 401 got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != "TOKEN_INVALID" {
		t.Fatalf("garbage token code want TOKEN_INVALID got %s", code)
	}

	// refresh token 不能当 access token 用
	pair, err := fixture.tokens.Issue(fixture.user)
	if err != nil {
		t.Fatalf("issue tokens failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	fixture.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token want 401 got %d", w.Code)
	}

	// 停用账户
	disabledPair, err := fixture.tokens.Issue(fixture.disabled)
	if err != nil {
		t.Fatalf("issue tokens failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+disabledPair.AccessToken)
	fixture.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("disabled account want 401 got %d", w.Code)
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	fixture := setupAuthMiddlewareTest(t)

	expiredCfg := &config.Config{
		Token: config.TokenConfig{
			Secret:              "router-test-secret-0123456789abcdef0123",
			AccessExpireMinutes: -1,
			RefreshExpireDays:   7,
		},
	}
	expiredTokens := service.NewTokenService(expiredCfg, nil)
	pair, err := expiredTokens.Issue(fixture.user)
	if err != nil {
		t.Fatalf("issue tokens failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	fixture.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token want 401 got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != "TOKEN_EXPIRED" {
		t.Fatalf("expired token code want TOKEN_EXPIRED got %s", code)
	}
}
