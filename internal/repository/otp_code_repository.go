package repository

import (
	"errors"
	"time"

	"github.com/atelier-academy/auth-service/internal/models"

	"gorm.io/gorm"
)

// OtpCodeRepository 验证码数据访问接口
type OtpCodeRepository interface {
	Create(code *models.OtpCode) error
	FindActiveByEmail(email string, now time.Time) (*models.OtpCode, error)
	FindLatestUnusedByEmail(email string) (*models.OtpCode, error)
	IncrementAttempt(id uint) error
	MarkUsed(id uint, usedAt time.Time) (bool, error)
	DeleteByEmail(email string) error
	DeleteByID(id uint) error
	DeleteExpired(now time.Time) (int64, error)
}

// GormOtpCodeRepository GORM 实现
type GormOtpCodeRepository struct {
	db *gorm.DB
}

// NewOtpCodeRepository 创建验证码仓库
func NewOtpCodeRepository(db *gorm.DB) *GormOtpCodeRepository {
	return &GormOtpCodeRepository{db: db}
}

// Create 创建验证码记录
func (r *GormOtpCodeRepository) Create(code *models.OtpCode) error {
	return r.db.Create(code).Error
}

// FindActiveByEmail 获取未使用且未过期的验证码记录
func (r *GormOtpCodeRepository) FindActiveByEmail(email string, now time.Time) (*models.OtpCode, error) {
	var record models.OtpCode
	if err := r.db.Where("email = ? AND used_at IS NULL AND expires_at > ?", email, now).
		Order("created_at desc, id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindLatestUnusedByEmail 获取最新的未使用验证码记录，含已过期
// 过期状态由调用方判定
func (r *GormOtpCodeRepository) FindLatestUnusedByEmail(email string) (*models.OtpCode, error) {
	var record models.OtpCode
	if err := r.db.Where("email = ? AND used_at IS NULL", email).
		Order("created_at desc, id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// IncrementAttempt 增加失败尝试次数
func (r *GormOtpCodeRepository) IncrementAttempt(id uint) error {
	return r.db.Model(&models.OtpCode{}).
		Where("id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1")).Error
}

// MarkUsed 标记验证码已使用
// 返回 false 表示记录已被并发消费或不存在，调用方按未命中处理
func (r *GormOtpCodeRepository) MarkUsed(id uint, usedAt time.Time) (bool, error) {
	result := r.db.Model(&models.OtpCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByEmail 删除该邮箱全部验证码记录
func (r *GormOtpCodeRepository) DeleteByEmail(email string) error {
	return r.db.Unscoped().Where("email = ?", email).Delete(&models.OtpCode{}).Error
}

// DeleteByID 删除单条验证码记录
func (r *GormOtpCodeRepository) DeleteByID(id uint) error {
	return r.db.Unscoped().Delete(&models.OtpCode{}, id).Error
}

// DeleteExpired 清理已过期或已使用的验证码记录
func (r *GormOtpCodeRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Unscoped().
		Where("expires_at <= ? OR used_at IS NOT NULL", now).
		Delete(&models.OtpCode{})
	return result.RowsAffected, result.Error
}
