package main

import (
	"time"

	"github.com/atelier-academy/auth-service/internal/config"
	"github.com/atelier-academy/auth-service/internal/constants"
	"github.com/atelier-academy/auth-service/internal/logger"
	"github.com/atelier-academy/auth-service/internal/models"
)

// 开发环境种子数据：写入几个演示账号，便于本地联调免注册
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	users := []models.User{
		{
			Email:           "demo@atelier.academy",
			DisplayName:     "demo",
			Status:          constants.UserStatusActive,
			EmailVerifiedAt: &now,
		},
		{
			Email:           "teacher@atelier.academy",
			DisplayName:     "teacher",
			Status:          constants.UserStatusActive,
			EmailVerifiedAt: &now,
		},
		{
			Email:       "disabled@atelier.academy",
			DisplayName: "disabled",
			Status:      constants.UserStatusDisabled,
		},
	}

	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s", user.Email)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	stdLog.Println("Seed completed")
}
