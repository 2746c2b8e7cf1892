// Package main implements the entry point for the EPIFlow server, which
// orchestrates fingerprint capture tasks between administrative operators
// and remote capture agents.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			logger.Error("Migration failed", "command", *migrateCmd, "error", err)
			log.Fatalf("Migration failed: %v", err)
		}
		logger.Info("Migration completed", "command", *migrateCmd)
		return
	}

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("Server exited with error", "error", err)
		log.Fatalf("Server exited with error: %v", err)
	}
}
