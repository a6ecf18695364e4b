package router

import (
	"fmt"
	"strings"

	"github.com/atelier-academy/auth-service/internal/cache"
	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/constants"
	authhandlers "github.com/atelier-academy/auth-service/internal/http/handlers/auth"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	authHandler := authhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	requestOtpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:request_otp", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxPerIP,
	}
	verifyOtpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:verify_otp", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxPerIP,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha/image", authHandler.GetImageCaptcha)
			auth.POST("/request-otp", RateLimitMiddleware(redisClient, requestOtpRule, KeyByIPAndJSONField("email")), authHandler.RequestOtp)
			auth.POST("/verify-otp", RateLimitMiddleware(redisClient, verifyOtpRule, KeyByIP), authHandler.VerifyOtp)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)

			authed := auth.Group("")
			authed.Use(AuthMiddleware(c.TokenService, c.UserRepo))
			{
				authed.GET("/me", authHandler.Me)
			}
		}
	}

	return r
}
