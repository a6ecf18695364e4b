package provider

import (
	"github.com/atelier-academy/auth-service/internal/cache"
	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/models"
	"github.com/atelier-academy/auth-service/internal/queue"
	"github.com/atelier-academy/auth-service/internal/repository"
	"github.com/atelier-academy/auth-service/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	OtpCodeRepo      repository.OtpCodeRepository
	RateLimitRepo    repository.RateLimitRepository
	RevokedTokenRepo repository.RevokedTokenRepository

	// Services
	AuthService      *service.AuthService
	TokenService     *service.TokenService
	RateLimitService *service.RateLimitService
	EmailService     *service.EmailService
	CaptchaService   *service.CaptchaService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.OtpCodeRepo = repository.NewOtpCodeRepository(db)
	c.RateLimitRepo = repository.NewRateLimitRepository(db)
	c.RevokedTokenRepo = repository.NewRevokedTokenRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.RateLimitService = service.NewRateLimitService(c.RateLimitRepo)
	c.TokenService = service.NewTokenService(c.Config, c.RevokedTokenRepo)
	c.AuthService = service.NewAuthService(
		c.Config,
		c.UserRepo,
		c.OtpCodeRepo,
		c.RateLimitService,
		c.TokenService,
		c.EmailService,
		c.QueueClient,
	)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
}
