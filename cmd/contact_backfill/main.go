package main

import (
	"context"
	"log/slog"
	"os"

	"cottage/internal/config"
	"cottage/internal/database"
	"cottage/internal/modules/linking"
	"cottage/internal/pkg/contact"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
)

// contact_backfill rewrites stored booking contact keys with the current
// normalization rules and re-runs account linking for every user.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Logger: log})
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(db)
	bookings := repository.NewBookingRepository(db)
	resolver := linking.NewResolver(users, bookings, log)

	res, err := resolver.Backfill(context.Background(), bookings, users, contact.Normalizer{CountryCode: cfg.CountryCode})
	if err != nil {
		log.Error("backfill failed", "error", err)
		os.Exit(1)
	}
	log.Info("backfill complete", "renormalized", res.Renormalized, "linked", res.Linked)
}
