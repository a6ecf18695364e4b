package auth

import "github.com/atelier-academy/auth-service/internal/provider"

// Handler 认证接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建认证处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
