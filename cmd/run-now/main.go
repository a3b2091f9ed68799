// Command run-now forces a generation batch for one firm, bypassing the
// scheduler's time-of-day check, and prints the resulting counts. Running it
// twice in one day is safe: the idempotency gate yields zero new instances.
package main

import (
	"context"
	"flag"

	"obligation_engine/internal/app"
	"obligation_engine/internal/infra/auth"
	"obligation_engine/internal/infra/config"
	idb "obligation_engine/internal/infra/database"
	"obligation_engine/internal/infra/logger"

	"github.com/google/uuid"
)

func main() {
	firmIDStr := flag.String("firm", "", "firm ID (UUID) to run generation for")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("run-now")

	firmID, err := uuid.Parse(*firmIDStr)
	if err != nil {
		log.Fatalf("FATAL: invalid -firm value %q: %v", *firmIDStr, err)
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	patternRepo := idb.NewPostgresPatternRepository(db)
	generationService := app.NewGenerationService(
		patternRepo,
		idb.NewPostgresTemplateRepository(db),
		idb.NewPostgresInstanceRepository(db),
		logger.Component("generation"),
	)
	automationService := app.NewAutomationService(
		idb.NewPostgresAutomationRepository(db),
		patternRepo,
		generationService,
		auth.NewStaticAuthorizer(cfg.AdminUserIDs),
		cfg.DefaultAutoRunTime,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout)
	defer cancel()

	result, err := automationService.RunNow(ctx, firmID)
	if err != nil {
		log.Fatalf("FATAL: Generation run failed: %v", err)
	}
	log.Infof("Generation complete: %d created, %d failed.", result.GeneratedCount, len(result.Failures))
	for _, f := range result.Failures {
		log.Warnf("Template %s failed: %v", f.TemplateID, f.Err)
	}

	stats, err := automationService.Stats(ctx, firmID)
	if err != nil {
		log.Fatalf("FATAL: Could not compute automation stats: %v", err)
	}
	log.Infof("Schedules: %d total, %d active, %d due within a week.",
		stats.TotalSchedules, stats.ActiveSchedules, stats.DueThisWeek)
}
