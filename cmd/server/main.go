package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/greenfield-univ/library-api/internal/config"
	"github.com/greenfield-univ/library-api/internal/database"
	"github.com/greenfield-univ/library-api/internal/handler"
	"github.com/greenfield-univ/library-api/internal/logging"
	"github.com/greenfield-univ/library-api/internal/queue"
	"github.com/greenfield-univ/library-api/internal/repository"
	"github.com/greenfield-univ/library-api/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.Init(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		logger.Fatal("schema migration failed", zap.Error(err))
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unreachable; cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	otps := repository.NewOTPRepo(db)
	books := repository.NewBookRepo(db)
	requests := repository.NewRequestRepo(db)
	notifications := repository.NewNotificationRepo(db)

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, tokens, otps, logger),
		Users:         handler.NewUserHandler(users),
		Books:         handler.NewBookHandler(books),
		Requests:      handler.NewRequestHandler(requests, books, users, notifications, logger),
		Notifications: handler.NewNotificationHandler(notifications),
		Chat:          handler.NewChatHandler(books),
		Stats:         handler.NewStatsHandler(books, requests),
		Health:        handler.NewHealthHandler(db),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	router.Register(e, h, cfg, rdb)

	// Audit-log consumer; reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartRequestConsumer(); err != nil {
			logger.Warn("request consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
