package worker

import (
	"context"
	"errors"
	"time"

	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/provider"
)

const defaultCleanupInterval = 10 * time.Minute

// CleanupService 过期记录清理服务
// 定时清扫过期验证码、限流窗口与吊销记录，失败只记日志
type CleanupService struct {
	name      string
	container *provider.Container
	interval  time.Duration
	done      chan struct{}
}

// NewCleanupService 创建清理服务
func NewCleanupService(c *provider.Container) *CleanupService {
	interval := defaultCleanupInterval
	if c != nil && c.Config != nil && c.Config.RateLimit.CleanupInterval > 0 {
		interval = time.Duration(c.Config.RateLimit.CleanupInterval) * time.Second
	}
	return &CleanupService{
		name:      "cleanup",
		container: c,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Name 服务名称
func (s *CleanupService) Name() string {
	if s == nil || s.name == "" {
		return "cleanup"
	}
	return s.name
}

// Start 启动清理循环
func (s *CleanupService) Start(ctx context.Context) error {
	if s == nil || s.container == nil {
		return errors.New("cleanup not initialized")
	}
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// Stop 停止清理循环
func (s *CleanupService) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

func (s *CleanupService) runOnce() {
	now := time.Now()

	if s.container.OtpCodeRepo != nil {
		if deleted, err := s.container.OtpCodeRepo.DeleteExpired(now); err != nil {
			logger.Warnw("cleanup_otp_codes_failed", "error", err)
		} else if deleted > 0 {
			logger.Debugw("cleanup_otp_codes", "deleted", deleted)
		}
	}

	if s.container.RateLimitService != nil {
		if deleted := s.container.RateLimitService.CleanupExpired(now); deleted > 0 {
			logger.Debugw("cleanup_rate_limit_records", "deleted", deleted)
		}
	}

	if s.container.TokenService != nil {
		if deleted := s.container.TokenService.CleanupExpired(now); deleted > 0 {
			logger.Debugw("cleanup_revoked_tokens", "deleted", deleted)
		}
	}
}
