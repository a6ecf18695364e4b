package models

import "time"

// RateLimitRecord 固定窗口限流记录
// key 形如 otp_request:email:<email> 或 otp_cooldown:<email>
type RateLimitRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`              // 主键
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`   // 限流 key
	Count     int       `gorm:"not null;default:0" json:"count"`   // 当前窗口计数
	ResetTime time.Time `gorm:"index;not null" json:"reset_time"`  // 窗口重置时间
	CreatedAt time.Time `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`           // 更新时间
}

// TableName 指定表名
func (RateLimitRecord) TableName() string {
	return "rate_limit_records"
}

// Expired 判断窗口是否已过期
func (r *RateLimitRecord) Expired(now time.Time) bool {
	return !now.Before(r.ResetTime)
}
