package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"obligation_engine/internal/app"
	"obligation_engine/internal/infra/config"
	idb "obligation_engine/internal/infra/database"
	"obligation_engine/internal/infra/logger"
	"obligation_engine/internal/infra/scheduler"
	"obligation_engine/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLog := logger.Component("main")
	mainLog.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLog.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLog.Info("Database connection established successfully.")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	if err := idb.RunMigrations(migrateCtx, db, migrations.FS); err != nil {
		cancelMigrate()
		mainLog.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}
	cancelMigrate()
	mainLog.Info("Database migrations applied.")

	// Initialize Repositories
	patternRepo := idb.NewPostgresPatternRepository(db)
	templateRepo := idb.NewPostgresTemplateRepository(db)
	instanceRepo := idb.NewPostgresInstanceRepository(db)
	automationRepo := idb.NewPostgresAutomationRepository(db)
	mainLog.Info("Repositories initialized.")

	// Initialize GenerationService
	generationService := app.NewGenerationService(
		patternRepo, templateRepo, instanceRepo, logger.Component("generation"),
	)
	mainLog.Info("Generation service initialized.")

	// Initialize AutomationScheduler
	autoScheduler := scheduler.NewAutomationScheduler(
		automationRepo,
		generationService,
		logger.Component("scheduler"),
		cfg.CronSpecTick,
		cfg.GenerationTimeout,
	)
	if err := autoScheduler.Start(); err != nil {
		mainLog.Fatalf("FATAL: Could not start automation scheduler: %v", err)
	}

	mainLog.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLog.Info("Shutting down application...")
	autoScheduler.Stop()
	mainLog.Info("Application shut down gracefully.")
}
