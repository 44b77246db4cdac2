package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-mgmt/internal/config"
	"user-mgmt/internal/db"
	"user-mgmt/internal/email"
	"user-mgmt/internal/repository"
	"user-mgmt/internal/service"
)

// Bootstrap inicial: garantiza que exista exactamente una cuenta admin,
// creandola con las credenciales de ADMIN_EMAIL/ADMIN_PASSWORD si no hay
// ninguna. Idempotente.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	tokenSvc := service.NewTokenService(cfg.VerifyTokenSecret, 0)
	sender := email.NewDisabledSender("email disabled for bootstrap")
	accountSvc := service.NewAccountService(logger, userRepo, profileRepo, tokenSvc, sender, nil, cfg.BaseURL)

	if cfg.AdminPassword == "AdminPassword123" {
		logger.Warn("using default admin password, set ADMIN_PASSWORD before deploying")
	}

	created, err := accountSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		logger.Fatal("ensure admin", zap.Error(err))
	}
	if created {
		logger.Info("admin account created", zap.String("email", cfg.AdminEmail))
	} else {
		logger.Info("admin account already exists")
	}
}
