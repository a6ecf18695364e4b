package models

import "time"

// RevokedToken 刷新 Token 吊销名单
// 按 jti 记录，保留到 Token 自然过期后由清理任务删除
type RevokedToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"` // Token 唯一标识
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
