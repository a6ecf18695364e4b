package auth

import "github.com/gin-gonic/gin"

// CurrentUserID 读取鉴权中间件写入的用户 ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
