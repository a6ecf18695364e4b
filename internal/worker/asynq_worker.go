package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/provider"
	"github.com/atelier-academy/auth-service/internal/queue"
	"github.com/atelier-academy/auth-service/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskWelcomeEmail, c.handleWelcomeEmail)
}

func (c *Consumer) handleWelcomeEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_welcome_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_welcome_email_unmarshal_failed", "error", err)
		return err
	}
	receiverEmail := strings.TrimSpace(payload.Email)
	if receiverEmail == "" {
		logger.Debugw("worker_welcome_email_skip_empty_receiver", "user_id", payload.UserID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_welcome_email_skip_email_service_nil", "user_id", payload.UserID)
		return nil
	}

	if err := c.EmailService.SendWelcomeEmail(receiverEmail, payload.DisplayName); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled),
			errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_welcome_email_skip_service_unavailable", "user_id", payload.UserID)
			return nil
		case errors.Is(err, service.ErrEmailRecipientRejected):
			// 收件方明确拒收，重试无意义
			logger.Warnw("worker_welcome_email_recipient_rejected", "user_id", payload.UserID, "receiver_email", receiverEmail)
			return nil
		default:
			logger.Warnw("worker_welcome_email_send_failed",
				"user_id", payload.UserID,
				"receiver_email", receiverEmail,
				"error", err,
			)
			return err
		}
	}
	return nil
}
