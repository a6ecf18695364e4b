package service

import (
	"context"
	"errors"
	"time"

	"github.com/atelier-academy/auth-service/internal/cache"
	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService 负责访问/刷新 token 的签发、校验、轮换与吊销
type TokenService struct {
	cfg         *config.Config
	revokedRepo repository.RevokedTokenRepository
}

// NewTokenService 创建 token 服务实例
func NewTokenService(cfg *config.Config, revokedRepo repository.RevokedTokenRepository) *TokenService {
	return &TokenService{
		cfg:         cfg,
		revokedRepo: revokedRepo,
	}
}

// TokenClaims JWT 声明，jti 存放于 RegisteredClaims.ID
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair 一次签发得到的访问/刷新 token
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Issue 为用户签发新的 token 对
func (s *TokenService) Issue(user *models.User) (*TokenPair, error) {
	now := time.Now()
	accessExpiresAt := now.Add(time.Duration(s.cfg.Token.AccessExpireMinutes) * time.Minute)
	refreshExpiresAt := now.Add(time.Duration(s.cfg.Token.RefreshExpireDays) * 24 * time.Hour)

	accessToken, err := s.sign(user, constants.TokenTypeAccess, now, accessExpiresAt)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(user, constants.TokenTypeRefresh, now, refreshExpiresAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *TokenService) sign(user *models.User, tokenType string, now, expiresAt time.Time) (string, error) {
	claims := TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Token.Secret))
}

func (s *TokenService) parse(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Token.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAccess 校验访问 token，返回其声明
func (s *TokenService) VerifyAccess(tokenString string) (*TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != constants.TokenTypeAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh 校验刷新 token 并检查吊销名单
func (s *TokenService) VerifyRefresh(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, ErrRefreshTokenInvalid
	}
	if claims.TokenType != constants.TokenTypeRefresh || claims.ID == "" {
		return nil, ErrRefreshTokenInvalid
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRefreshTokenInvalid
	}
	return claims, nil
}

// IssueAccess 仅签发新的访问 token，刷新轮换时使用
// 刷新 token 本身保持不变，直到自然过期或被吊销
func (s *TokenService) IssueAccess(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.cfg.Token.AccessExpireMinutes) * time.Minute)
	accessToken, err := s.sign(user, constants.TokenTypeAccess, now, expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiresAt, nil
}

// Revoke 吊销刷新 token，对无法解析的输入保持幂等
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) (*TokenClaims, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, nil
	}
	if claims.TokenType != constants.TokenTypeRefresh || claims.ID == "" {
		return nil, nil
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.Token.RefreshExpireDays) * 24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revokedRepo.Add(claims.ID, expiresAt); err != nil {
		return nil, err
	}

	if cache.Enabled() {
		ttl := time.Until(expiresAt)
		if ttl > 0 {
			if cacheErr := cache.SetFlag(ctx, revokedTokenCacheKey(claims.ID), ttl); cacheErr != nil {
				logger.Warnw("写入 token 吊销缓存失败", "jti", claims.ID, "error", cacheErr)
			}
		}
	}
	return claims, nil
}

// CleanupExpired 清理已自然过期的吊销记录
func (s *TokenService) CleanupExpired(now time.Time) int64 {
	deleted, err := s.revokedRepo.DeleteExpired(now)
	if err != nil {
		logger.Errorw("清理过期吊销记录失败", "error", err)
		return 0
	}
	return deleted
}

// isRevoked 先查 redis 标记，未命中再回源数据库
func (s *TokenService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if cache.Enabled() {
		hit, err := cache.HasFlag(ctx, revokedTokenCacheKey(jti))
		if err == nil && hit {
			return true, nil
		}
		if err != nil {
			logger.Warnw("读取 token 吊销缓存失败", "jti", jti, "error", err)
		}
	}
	return s.revokedRepo.Exists(jti)
}

func revokedTokenCacheKey(jti string) string {
	return "revoked_token:" + jti
}
