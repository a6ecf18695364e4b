package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRateLimitServiceTest(t *testing.T) (*RateLimitService, repository.RateLimitRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:rate_limit_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateLimitRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := repository.NewRateLimitRepository(db)
	return NewRateLimitService(repo), repo
}

func TestCheckRateLimitWindowMath(t *testing.T) {
	svc, _ := setupRateLimitServiceTest(t)

	key := BuildRateLimitKey("otp_request:email", "user@example.com")
	wantRemaining := []int{4, 3, 2, 1, 0}
	for i, want := range wantRemaining {
		result, err := svc.CheckRateLimit(key, 5, time.Hour)
		if err != nil {
			t.Fatalf("check %d failed: %v", i+1, err)
		}
		if !result.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
		if result.Remaining != want {
			t.Fatalf("call %d remaining = %d, want %d", i+1, result.Remaining, want)
		}
	}

	denied, err := svc.CheckRateLimit(key, 5, time.Hour)
	if err != nil {
		t.Fatalf("denied check failed: %v", err)
	}
	if denied.Allowed {
		t.Fatalf("sixth call should be denied")
	}
	if denied.RetryAfter < 1 {
		t.Fatalf("expected positive retryAfter, got %d", denied.RetryAfter)
	}
}

func TestCheckRateLimitWindowReset(t *testing.T) {
	svc, repo := setupRateLimitServiceTest(t)

	key := BuildRateLimitKey("otp_request:email", "reset@example.com")
	for i := 0; i < 5; i++ {
		if _, err := svc.CheckRateLimit(key, 5, time.Hour); err != nil {
			t.Fatalf("fill window failed: %v", err)
		}
	}

	// 把窗口时间拨到过去，模拟窗口过期
	if _, err := repo.ResetWindow(key, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("force expire failed: %v", err)
	}

	result, err := svc.CheckRateLimit(key, 5, time.Hour)
	if err != nil {
		t.Fatalf("check after expiry failed: %v", err)
	}
	if !result.Allowed || result.Remaining != 4 {
		t.Fatalf("expected fresh window allow with remaining 4, got allowed=%v remaining=%d", result.Allowed, result.Remaining)
	}
}

func TestEnforceRateLimitReturnsTypedError(t *testing.T) {
	svc, _ := setupRateLimitServiceTest(t)

	key := BuildRateLimitKey("otp_request:ip", "203.0.113.7")
	for i := 0; i < 2; i++ {
		if err := svc.EnforceRateLimit(key, 2, time.Hour); err != nil {
			t.Fatalf("enforce %d failed: %v", i+1, err)
		}
	}

	err := svc.EnforceRateLimit(key, 2, time.Hour)
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rateErr.RetryAfter < 1 {
		t.Fatalf("expected positive retryAfter, got %d", rateErr.RetryAfter)
	}
}

func TestCheckOtpCooldown(t *testing.T) {
	svc, _ := setupRateLimitServiceTest(t)

	email := "cooldown@example.com"
	if err := svc.CheckOtpCooldown(email, time.Minute); err != nil {
		t.Fatalf("first cooldown check should pass: %v", err)
	}

	err := svc.CheckOtpCooldown(email, time.Minute)
	var cooldownErr *CooldownError
	if !errors.As(err, &cooldownErr) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	if cooldownErr.RetryAfter < 1 || cooldownErr.RetryAfter > 60 {
		t.Fatalf("unexpected retryAfter %d", cooldownErr.RetryAfter)
	}
}

func TestCheckOtpCooldownExpires(t *testing.T) {
	svc, repo := setupRateLimitServiceTest(t)

	email := "cooldown-expired@example.com"
	if err := svc.CheckOtpCooldown(email, time.Minute); err != nil {
		t.Fatalf("first cooldown check should pass: %v", err)
	}

	key := BuildRateLimitKey("otp_cooldown", email)
	if _, err := repo.ResetWindow(key, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("force expire failed: %v", err)
	}

	if err := svc.CheckOtpCooldown(email, time.Minute); err != nil {
		t.Fatalf("cooldown should pass after expiry: %v", err)
	}
}

func TestCleanupExpired(t *testing.T) {
	svc, repo := setupRateLimitServiceTest(t)

	if _, err := repo.ResetWindow("expired-key", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seed expired record failed: %v", err)
	}
	if _, err := repo.ResetWindow("active-key", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed active record failed: %v", err)
	}

	if deleted := svc.CleanupExpired(time.Now()); deleted != 1 {
		t.Fatalf("expected 1 deleted record, got %d", deleted)
	}

	active, err := repo.GetByKey("active-key")
	if err != nil || active == nil {
		t.Fatalf("active record should survive cleanup: %v", err)
	}
}
