package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/atelier-academy/auth-service/internal/cache"
	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/queue"
	"github.com/atelier-academy/auth-service/internal/repository"
)

// CodeSender 验证码投递通道
type CodeSender interface {
	SendOtpCode(toEmail, code string, expiresIn time.Duration) error
}

// AuthService 邮箱验证码登录的核心编排
type AuthService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	otpRepo     repository.OtpCodeRepository
	rateLimiter *RateLimitService
	tokens      *TokenService
	sender      CodeSender
	queueClient *queue.Client
}

// NewAuthService 创建认证服务实例
func NewAuthService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	otpRepo repository.OtpCodeRepository,
	rateLimiter *RateLimitService,
	tokens *TokenService,
	sender CodeSender,
	queueClient *queue.Client,
) *AuthService {
	return &AuthService{
		cfg:         cfg,
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		rateLimiter: rateLimiter,
		tokens:      tokens,
		sender:      sender,
		queueClient: queueClient,
	}
}

// RequestCodeInput 请求验证码入参
type RequestCodeInput struct {
	Email    string
	ClientIP string
}

// RequestCodeResult 请求验证码结果
type RequestCodeResult struct {
	Email            string
	ExpiresInMinutes int
	CooldownSeconds  int
}

// NormalizeEmail 规整邮箱：去空白、转小写，并校验格式
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// RequestCode 请求登录验证码
// 流程：冷却检查 → 限流 → 作废旧码 → 生成并落库 → 发送邮件
func (s *AuthService) RequestCode(input RequestCodeInput) (*RequestCodeResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	cooldown := time.Duration(s.cfg.Otp.CooldownSeconds) * time.Second
	if err := s.rateLimiter.CheckOtpCooldown(email, cooldown); err != nil {
		return nil, err
	}

	window := time.Duration(s.cfg.RateLimit.WindowSeconds) * time.Second
	emailKey := BuildRateLimitKey(constants.RateLimitScopeOtpRequestEmail, email)
	if err := s.rateLimiter.EnforceRateLimit(emailKey, s.cfg.RateLimit.MaxPerEmail, window); err != nil {
		return nil, err
	}
	if ip := strings.TrimSpace(input.ClientIP); ip != "" {
		ipKey := BuildRateLimitKey(constants.RateLimitScopeOtpRequestIP, ip)
		if err := s.rateLimiter.EnforceRateLimit(ipKey, s.cfg.RateLimit.MaxPerIP, window); err != nil {
			return nil, err
		}
	}

	// 旧码全部作废，同一邮箱只保留最新一条有效记录
	if err := s.otpRepo.DeleteByEmail(email); err != nil {
		return nil, err
	}

	code, err := GenerateOtpCode(s.cfg.Otp.Length)
	if err != nil {
		return nil, err
	}
	codeHash, err := HashOtpCode(code)
	if err != nil {
		return nil, err
	}

	expiresIn := time.Duration(s.cfg.Otp.ExpireMinutes) * time.Minute
	record := &models.OtpCode{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(expiresIn),
	}
	if err := s.otpRepo.Create(record); err != nil {
		return nil, err
	}

	if err := s.sender.SendOtpCode(email, code, expiresIn); err != nil {
		logger.Errorw("验证码邮件发送失败", "email", email, "error", err)
		// 发送失败不吞冷却，允许立即重试
		if clearErr := s.rateLimiter.ClearOtpCooldown(email); clearErr != nil {
			logger.Warnw("清除验证码冷却失败", "email", email, "error", clearErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	return &RequestCodeResult{
		Email:            email,
		ExpiresInMinutes: s.cfg.Otp.ExpireMinutes,
		CooldownSeconds:  s.cfg.Otp.CooldownSeconds,
	}, nil
}

// VerifyCodeResult 验证成功结果
type VerifyCodeResult struct {
	User      *models.User
	Tokens    *TokenPair
	IsNewUser bool
}

// VerifyCode 校验验证码并签发 token 对
// 验证码一次性消费：成功、过期、尝试耗尽均使记录失效
func (s *AuthService) VerifyCode(ctx context.Context, rawEmail, code string) (*VerifyCodeResult, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	if !ValidOtpCodeFormat(strings.TrimSpace(code), s.cfg.Otp.Length) {
		return nil, ErrInvalidOtpCode
	}
	code = strings.TrimSpace(code)

	now := time.Now()
	record, err := s.otpRepo.FindActiveByEmail(email, now)
	if err != nil {
		return nil, err
	}
	if record == nil {
		// 活跃记录未命中时区分「已过期」与「不存在」
		stale, staleErr := s.otpRepo.FindLatestUnusedByEmail(email)
		if staleErr != nil {
			return nil, staleErr
		}
		if stale != nil && !stale.ExpiresAt.After(now) {
			if delErr := s.otpRepo.DeleteByID(stale.ID); delErr != nil {
				logger.Warnw("删除过期验证码失败", "id", stale.ID, "error", delErr)
			}
			return nil, ErrOtpExpired
		}
		return nil, ErrOtpNotFound
	}

	if record.AttemptCount >= s.cfg.Otp.MaxAttempts {
		if delErr := s.otpRepo.DeleteByID(record.ID); delErr != nil {
			logger.Warnw("删除超次验证码失败", "id", record.ID, "error", delErr)
		}
		return nil, ErrOtpMaxAttemptsExceeded
	}

	if !CheckOtpCode(code, record.CodeHash) {
		if incErr := s.otpRepo.IncrementAttempt(record.ID); incErr != nil {
			logger.Warnw("累计验证码尝试次数失败", "id", record.ID, "error", incErr)
		}
		return nil, ErrOtpInvalid
	}

	used, err := s.otpRepo.MarkUsed(record.ID, now)
	if err != nil {
		return nil, err
	}
	if !used {
		// 已被并发请求消费
		return nil, ErrOtpNotFound
	}

	user, isNew, err := s.loginOrRegister(ctx, email, now)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &VerifyCodeResult{User: user, Tokens: tokens, IsNewUser: isNew}, nil
}

func (s *AuthService) loginOrRegister(ctx context.Context, email string, now time.Time) (*models.User, bool, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, false, err
	}

	isNew := false
	if user == nil {
		user = &models.User{
			Email:           email,
			DisplayName:     displayNameFromEmail(email),
			Status:          constants.UserStatusActive,
			EmailVerifiedAt: &now,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, false, err
		}
		isNew = true
	}

	if user.Status == constants.UserStatusDisabled {
		return nil, false, ErrUserDisabled
	}

	user.LastLoginAt = &now
	if user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &now
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, false, err
	}

	if cacheErr := cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user)); cacheErr != nil {
		logger.Warnw("写入用户鉴权缓存失败", "user_id", user.ID, "error", cacheErr)
	}

	if isNew && s.queueClient.Enabled() {
		payload := queue.WelcomeEmailPayload{
			UserID:      user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
		if enqErr := s.queueClient.EnqueueWelcomeEmail(payload); enqErr != nil {
			logger.Warnw("欢迎邮件任务入队失败", "user_id", user.ID, "error", enqErr)
		}
	}
	return user, isNew, nil
}

// RefreshResult 刷新结果
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	User            *models.User
}

// Refresh 用刷新 token 换取新的访问 token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRefreshTokenInvalid
	}
	if user.Status == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	accessToken, expiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
		User:            user,
	}, nil
}

// Logout 吊销刷新 token
// 对任意输入幂等：无法解析或已吊销的 token 同样视为登出成功
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.tokens.Revoke(ctx, refreshToken)
	if err != nil {
		logger.Errorw("吊销刷新 token 失败", "error", err)
		return
	}
	if claims != nil {
		if cacheErr := cache.DelUserAuthState(ctx, claims.UserID); cacheErr != nil {
			logger.Warnw("清除用户鉴权缓存失败", "user_id", claims.UserID, "error", cacheErr)
		}
	}
}

// GetProfile 按访问 token 返回当前用户
func (s *AuthService) GetProfile(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, claims.UserID)
}

// GetUserByID 获取可用的用户记录
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// VerifyAccessToken 校验访问 token，middleware 使用
func (s *AuthService) VerifyAccessToken(tokenString string) (*TokenClaims, error) {
	return s.tokens.VerifyAccess(tokenString)
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
