package main

import (
	"log"

	"cogscheduler/backend/internal/config"
	"cogscheduler/backend/internal/db"
	"cogscheduler/backend/internal/handler"
	"cogscheduler/backend/internal/parser"
	"cogscheduler/backend/internal/pkg/logger"
	"cogscheduler/backend/internal/repository"
	"cogscheduler/backend/internal/router"
	"cogscheduler/backend/internal/service"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		zlog.Fatal("open database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		zlog.Fatal("run migrations", "error", err)
	}

	userRepo := repository.NewUserRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	feedbackRepo := repository.NewFeedbackRepository(database)

	authService := service.NewAuthService(userRepo, profileRepo, cfg.JWTSecret, cfg.TokenTTL)
	scheduleService := service.NewScheduleService(
		profileRepo, scheduleRepo, feedbackRepo,
		parser.NewRegexParser(), zlog, cfg.EngineDeadline,
	)

	authHandler := handler.NewAuthHandler(authService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)

	engine := router.New(authService, authHandler, scheduleHandler, cfg.CORSOrigins, zlog)
	zlog.Info("cognitive scheduler listening", "port", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("run server", "error", err)
	}
}
