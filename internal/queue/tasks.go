package queue

import (
	"encoding/json"

	"github.com/atelier-academy/auth-service/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskWelcomeEmail 首次登录欢迎邮件任务
	TaskWelcomeEmail = constants.TaskWelcomeEmail
)

// WelcomeEmailPayload 欢迎邮件任务载荷
type WelcomeEmailPayload struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// NewWelcomeEmailTask 创建欢迎邮件任务
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeEmail, body), nil
}
