package models

import (
	"time"

	"gorm.io/gorm"
)

// OtpCode 一次性验证码记录
// 同一邮箱同时只存在一条未使用且未过期的记录
type OtpCode struct {
	ID           uint           `gorm:"primarykey" json:"id"`           // 主键
	Email        string         `gorm:"index;not null" json:"email"`    // 邮箱（小写）
	CodeHash     string         `gorm:"not null" json:"-"`              // 验证码哈希（明文不落库）
	ExpiresAt    time.Time      `gorm:"index" json:"expires_at"`        // 过期时间
	AttemptCount int            `gorm:"default:0" json:"attempt_count"` // 失败尝试次数
	UsedAt       *time.Time     `gorm:"index" json:"used_at"`           // 使用时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间
}

// TableName 指定表名
func (OtpCode) TableName() string {
	return "otp_codes"
}
