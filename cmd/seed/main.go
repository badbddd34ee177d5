package main

import (
	"context"
	"errors"
	"log"
	"time"

	"go.uber.org/zap"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/db"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/logger"
	"usersvc/internal/model"
	"usersvc/internal/repository"
	"usersvc/internal/service"
)

// seed creates the first ADMIN so the admin-only creation endpoint is reachable.
// Running it again is a no-op.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg := logger.New(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = logg.Sync() }()

	if cfg.SeedAdminPassword == "" {
		logg.Fatal("SEED_ADMIN_PASSWORD must be provided")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logg.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	userService := service.NewUserService(
		repository.NewUserRepository(gormDB),
		auth.NewPasswordHasher(cfg.BcryptCost, 1),
		nil, // no cache needed for a one-off write
		service.Options{Logger: logg},
	)

	admin, err := userService.CreateUser(ctx, service.CreateUserInput{
		Email:         cfg.SeedAdminEmail,
		Password:      cfg.SeedAdminPassword,
		FirstName:     cfg.SeedAdminFirstName,
		LastName:      cfg.SeedAdminLastName,
		Role:          model.RoleAdmin,
		TermsAccepted: true,
	})
	switch {
	case errors.Is(err, apperrors.ErrEmailExists):
		logg.Info("admin already exists", zap.String("email", cfg.SeedAdminEmail))
	case err != nil:
		logg.Fatal("create admin", zap.Error(err))
	default:
		logg.Info("admin created", zap.String("id", admin.ID.String()), zap.String("email", admin.Email))
	}
}
