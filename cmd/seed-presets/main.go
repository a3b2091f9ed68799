// Command seed-presets inserts the canonical compliance cadences for a firm.
// Safe to re-run: presets the firm already has are skipped.
package main

import (
	"context"
	"flag"
	"time"

	"obligation_engine/internal/app"
	"obligation_engine/internal/infra/auth"
	"obligation_engine/internal/infra/config"
	idb "obligation_engine/internal/infra/database"
	"obligation_engine/internal/infra/logger"
	"obligation_engine/migrations"

	"github.com/google/uuid"
)

func main() {
	var (
		firmIDStr = flag.String("firm", "", "firm ID (UUID) to seed presets for")
		actorID   = flag.Int64("actor", 0, "user ID performing the seeding")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("seed-presets")

	firmID, err := uuid.Parse(*firmIDStr)
	if err != nil {
		log.Fatalf("FATAL: invalid -firm value %q: %v", *firmIDStr, err)
	}
	if *actorID == 0 {
		log.Fatal("FATAL: -actor is required")
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := idb.RunMigrations(ctx, db, migrations.FS); err != nil {
		log.Fatalf("FATAL: Could not apply database migrations: %v", err)
	}

	patternService := app.NewPatternService(
		idb.NewPostgresPatternRepository(db),
		auth.NewStaticAuthorizer(cfg.AdminUserIDs),
		log,
	)

	seeded, err := patternService.SeedPresets(ctx, *actorID, firmID)
	if err != nil {
		log.Fatalf("FATAL: Seeding failed: %v", err)
	}
	log.Infof("Seeded %d preset patterns for firm %s.", seeded, firmID)
}
