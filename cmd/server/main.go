package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"usersvc/docs"
	"usersvc/internal/auth"
	"usersvc/internal/cache"
	"usersvc/internal/config"
	"usersvc/internal/db"
	"usersvc/internal/handler"
	"usersvc/internal/logger"
	"usersvc/internal/repository"
	"usersvc/internal/router"
	"usersvc/internal/service"
)

// @title Users Service API
// @version 1.0
// @description User records, identity resolution and role-based access for the platform.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = logg.Sync() }()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			logg.Warn("close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logg)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		logg.Warn("redis unavailable, serving without cache", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(gormDB)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	resolver := auth.NewResolver(jwtService, userRepo)

	userService := service.NewUserService(userRepo, hasher, cacheClient, service.Options{
		CacheTTL: cfg.UserCacheTTL,
		Logger:   logg.Named("users"),
	})
	userHandler := handler.NewUserHandler(userService)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	router.Register(e, cfg, logg, resolver, userHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		logg.Info("users service listening",
			zap.String("addr", addr),
			zap.String("swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
