package repository

import (
	"errors"
	"time"

	"github.com/atelier-academy/auth-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateLimitRepository 限流记录数据访问接口
type RateLimitRepository interface {
	GetByKey(key string) (*models.RateLimitRecord, error)
	ResetWindow(key string, resetTime time.Time) (*models.RateLimitRecord, error)
	IncrementIfActive(key string, resetTime time.Time) (int64, error)
	DeleteByKey(key string) error
	DeleteExpired(now time.Time) (int64, error)
}

// GormRateLimitRepository GORM 实现
type GormRateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository 创建限流记录仓库
func NewRateLimitRepository(db *gorm.DB) *GormRateLimitRepository {
	return &GormRateLimitRepository{db: db}
}

// GetByKey 获取限流记录
func (r *GormRateLimitRepository) GetByKey(key string) (*models.RateLimitRecord, error) {
	var record models.RateLimitRecord
	if err := r.db.Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ResetWindow 开启新窗口，计数置 1
// key 冲突时覆盖旧窗口（last-write-wins）
func (r *GormRateLimitRepository) ResetWindow(key string, resetTime time.Time) (*models.RateLimitRecord, error) {
	record := &models.RateLimitRecord{
		Key:       key,
		Count:     1,
		ResetTime: resetTime,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      1,
			"reset_time": resetTime,
			"updated_at": time.Now(),
		}),
	}).Create(record).Error
	if err != nil {
		return nil, err
	}
	return record, nil
}

// IncrementIfActive 在指定窗口内自增计数
// 返回受影响行数；0 表示窗口已被并发重置
func (r *GormRateLimitRepository) IncrementIfActive(key string, resetTime time.Time) (int64, error) {
	result := r.db.Model(&models.RateLimitRecord{}).
		Where("key = ? AND reset_time = ?", key, resetTime).
		UpdateColumn("count", gorm.Expr("count + 1"))
	return result.RowsAffected, result.Error
}

// DeleteByKey 删除限流记录
func (r *GormRateLimitRepository) DeleteByKey(key string) error {
	return r.db.Where("key = ?", key).Delete(&models.RateLimitRecord{}).Error
}

// DeleteExpired 清理已过期窗口
func (r *GormRateLimitRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("reset_time <= ?", now).Delete(&models.RateLimitRecord{})
	return result.RowsAffected, result.Error
}
