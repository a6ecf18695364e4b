package repository

import (
	"time"

	"github.com/atelier-academy/auth-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedTokenRepository 刷新 Token 吊销名单数据访问接口
type RevokedTokenRepository interface {
	Add(jti string, expiresAt time.Time) error
	Exists(jti string) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

// GormRevokedTokenRepository GORM 实现
type GormRevokedTokenRepository struct {
	db *gorm.DB
}

// NewRevokedTokenRepository 创建吊销名单仓库
func NewRevokedTokenRepository(db *gorm.DB) *GormRevokedTokenRepository {
	return &GormRevokedTokenRepository{db: db}
}

// Add 写入吊销记录，重复写入视为成功
func (r *GormRevokedTokenRepository) Add(jti string, expiresAt time.Time) error {
	record := &models.RevokedToken{
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(record).Error
}

// Exists 判断 jti 是否已被吊销
func (r *GormRevokedTokenRepository) Exists(jti string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpired 清理已自然过期的吊销记录
func (r *GormRevokedTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at <= ?", now).Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}
