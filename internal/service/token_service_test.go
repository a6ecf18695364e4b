package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTokenServiceTest(t *testing.T, cfg *config.Config) *TokenService {
	svc, _ := setupTokenServiceTestWithRepo(t, cfg)
	return svc
}

func setupTokenServiceTestWithRepo(t *testing.T, cfg *config.Config) (*TokenService, repository.RevokedTokenRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:token_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RevokedToken{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewRevokedTokenRepository(db)
	return NewTokenService(cfg, repo), repo
}

func tokenTestConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			Secret:              "token-service-test-secret-0123456789abcdef",
			AccessExpireMinutes: 15,
			RefreshExpireDays:   7,
		},
	}
}

func tokenTestUser() *models.User {
	return &models.User{ID: 42, Email: "user@example.com"}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := setupTokenServiceTest(t, tokenTestConfig())

	pair, err := svc.Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens must differ")
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access failed: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti on access token")
	}

	refreshClaims, err := svc.VerifyRefresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh failed: %v", err)
	}
	if refreshClaims.UserID != 42 {
		t.Fatalf("unexpected refresh claims %+v", refreshClaims)
	}

	accessToken, expiresAt, err := svc.IssueAccess(tokenTestUser())
	if err != nil {
		t.Fatalf("issue access failed: %v", err)
	}
	rotated, err := svc.VerifyAccess(accessToken)
	if err != nil {
		t.Fatalf("verify rotated access failed: %v", err)
	}
	if rotated.UserID != 42 {
		t.Fatalf("rotated token must carry the same user, got %+v", rotated)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("rotated token should expire in the future")
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	svc := setupTokenServiceTest(t, tokenTestConfig())

	pair, err := svc.Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.VerifyRefresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid, got %v", err)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	cfg := tokenTestConfig()
	cfg.Token.AccessExpireMinutes = -1
	svc := setupTokenServiceTest(t, cfg)

	pair, err := svc.Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := svc.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyAccessGarbage(t *testing.T) {
	svc := setupTokenServiceTest(t, tokenTestConfig())

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := svc.VerifyAccess(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	svc := setupTokenServiceTest(t, tokenTestConfig())
	ctx := context.Background()

	pair, err := svc.Issue(tokenTestUser())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := svc.Revoke(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if claims == nil || claims.UserID != 42 {
		t.Fatalf("expected revoked claims for user 42, got %+v", claims)
	}

	if _, err := svc.VerifyRefresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid after revoke, got %v", err)
	}

	// 重复吊销幂等
	if _, err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second revoke should be idempotent: %v", err)
	}
}

func TestRevokeGarbageIsIdempotent(t *testing.T) {
	svc := setupTokenServiceTest(t, tokenTestConfig())

	claims, err := svc.Revoke(context.Background(), "not-a-token")
	if err != nil {
		t.Fatalf("revoke of garbage should not fail: %v", err)
	}
	if claims != nil {
		t.Fatalf("expected nil claims for garbage token, got %+v", claims)
	}
}

func TestTokenCleanupExpired(t *testing.T) {
	svc, repo := setupTokenServiceTestWithRepo(t, tokenTestConfig())

	if err := repo.Add("expired-jti", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("seed expired record failed: %v", err)
	}
	if err := repo.Add("live-jti", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed live record failed: %v", err)
	}

	if deleted := svc.CleanupExpired(time.Now()); deleted != 1 {
		t.Fatalf("expected 1 deleted record, got %d", deleted)
	}

	exists, err := repo.Exists("live-jti")
	if err != nil || !exists {
		t.Fatalf("live record should survive cleanup, exists=%v err=%v", exists, err)
	}
}
