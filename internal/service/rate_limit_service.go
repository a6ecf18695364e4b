package service

import (
	"math"
	"time"

	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/repository"
)

// RateLimitService 基于数据库记录的固定窗口限流
type RateLimitService struct {
	repo repository.RateLimitRepository
}

// RateLimitResult 单次限流检查结果
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
	// RetryAfter 拒绝时的剩余等待秒数，放行时为 0
	RetryAfter int
}

// NewRateLimitService 创建限流服务
func NewRateLimitService(repo repository.RateLimitRepository) *RateLimitService {
	return &RateLimitService{repo: repo}
}

// BuildRateLimitKey 拼接限流键，scope 取 constants.RateLimitScope*
func BuildRateLimitKey(scope, subject string) string {
	return scope + ":" + subject
}

// CheckRateLimit 固定窗口计数
// 窗口首个请求开启新窗口；窗口过期后下一个请求重置计数
func (s *RateLimitService) CheckRateLimit(key string, maxRequests int, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	record, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}

	if record == nil || record.Expired(now) {
		fresh, resetErr := s.repo.ResetWindow(key, now.Add(window))
		if resetErr != nil {
			return nil, resetErr
		}
		return &RateLimitResult{
			Allowed:   true,
			Remaining: maxRequests - 1,
			ResetTime: fresh.ResetTime,
		}, nil
	}

	if record.Count >= maxRequests {
		return &RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetTime:  record.ResetTime,
			RetryAfter: retryAfterSeconds(record.ResetTime, now),
		}, nil
	}

	affected, err := s.repo.IncrementIfActive(key, record.ResetTime)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// 窗口被并发重置，按新窗口内的一次请求处理
		fresh, resetErr := s.repo.ResetWindow(key, now.Add(window))
		if resetErr != nil {
			return nil, resetErr
		}
		return &RateLimitResult{
			Allowed:   true,
			Remaining: maxRequests - 1,
			ResetTime: fresh.ResetTime,
		}, nil
	}

	remaining := maxRequests - record.Count - 1
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   true,
		Remaining: remaining,
		ResetTime: record.ResetTime,
	}, nil
}

// EnforceRateLimit 检查并在命中上限时返回 RateLimitError
func (s *RateLimitService) EnforceRateLimit(key string, maxRequests int, window time.Duration) error {
	result, err := s.CheckRateLimit(key, maxRequests, window)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return &RateLimitError{RetryAfter: result.RetryAfter, ResetTime: result.ResetTime}
	}
	return nil
}

// CheckOtpCooldown 重发冷却检查
// 冷却未结束返回 CooldownError，否则刷新冷却窗口
func (s *RateLimitService) CheckOtpCooldown(email string, cooldown time.Duration) error {
	key := BuildRateLimitKey(constants.RateLimitScopeOtpCooldown, email)
	now := time.Now()
	record, err := s.repo.GetByKey(key)
	if err != nil {
		return err
	}
	if record != nil && !record.Expired(now) {
		return &CooldownError{
			RetryAfter: retryAfterSeconds(record.ResetTime, now),
			ResetTime:  record.ResetTime,
		}
	}
	if _, err := s.repo.ResetWindow(key, now.Add(cooldown)); err != nil {
		return err
	}
	return nil
}

// ClearOtpCooldown 清除冷却记录，邮件派发失败后调用避免空等
func (s *RateLimitService) ClearOtpCooldown(email string) error {
	return s.repo.DeleteByKey(BuildRateLimitKey(constants.RateLimitScopeOtpCooldown, email))
}

// CleanupExpired 删除已过期窗口记录
func (s *RateLimitService) CleanupExpired(now time.Time) int64 {
	deleted, err := s.repo.DeleteExpired(now)
	if err != nil {
		logger.Errorw("清理过期限流记录失败", "error", err)
		return 0
	}
	return deleted
}

func retryAfterSeconds(resetTime, now time.Time) int {
	seconds := int(math.Ceil(resetTime.Sub(now).Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
