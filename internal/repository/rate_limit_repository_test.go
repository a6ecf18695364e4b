package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/atelier-academy/auth-service/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRateLimitRepositoryTest(t *testing.T) *GormRateLimitRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:rate_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.RateLimitRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewRateLimitRepository(db)
}

func TestResetWindowUpsert(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	reset := time.Now().Add(time.Hour)

	record, err := repo.ResetWindow("email:a@example.com", reset)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if record.Count != 1 {
		t.Fatalf("fresh window should start at 1, got %d", record.Count)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.IncrementIfActive("email:a@example.com", reset); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}

	// 再次重置覆盖旧窗口
	newReset := reset.Add(time.Hour)
	if _, err := repo.ResetWindow("email:a@example.com", newReset); err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	reloaded, err := repo.GetByKey("email:a@example.com")
	if err != nil || reloaded == nil {
		t.Fatalf("expected record, got %v / %v", reloaded, err)
	}
	if reloaded.Count != 1 {
		t.Fatalf("reset should rewind the count to 1, got %d", reloaded.Count)
	}
}

func TestIncrementIfActiveGuardsWindow(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	reset := time.Now().Add(time.Hour).Truncate(time.Second)

	if _, err := repo.ResetWindow("ip:10.0.0.1", reset); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	affected, err := repo.IncrementIfActive("ip:10.0.0.1", reset)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected one affected row, got %d", affected)
	}

	// 窗口时间不匹配视为已被并发重置
	affected, err = repo.IncrementIfActive("ip:10.0.0.1", reset.Add(time.Minute))
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale window must not increment, got %d affected", affected)
	}

	affected, err = repo.IncrementIfActive("ip:10.0.0.2", reset)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("missing key must not increment, got %d affected", affected)
	}
}

func TestRateLimitDeleteByKeyAndExpired(t *testing.T) {
	repo := setupRateLimitRepositoryTest(t)
	now := time.Now()

	if _, err := repo.ResetWindow("email:gone@example.com", now.Add(time.Hour)); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if err := repo.DeleteByKey("email:gone@example.com"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if record, err := repo.GetByKey("email:gone@example.com"); err != nil || record != nil {
		t.Fatalf("expected miss after delete, got %v / %v", record, err)
	}

	if _, err := repo.ResetWindow("email:old@example.com", now.Add(-time.Minute)); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, err := repo.ResetWindow("email:live@example.com", now.Add(time.Hour)); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	deleted, err := repo.DeleteExpired(now)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	if record, err := repo.GetByKey("email:live@example.com"); err != nil || record == nil {
		t.Fatalf("live window should survive, got %v / %v", record, err)
	}
}
