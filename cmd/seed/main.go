package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"cottage/internal/config"
	"cottage/internal/database"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
	"cottage/internal/seed"
)

func main() {
	path := flag.String("file", "configs/seed.toml", "seed file")
	flag.Parse()

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

	f, err := seed.Load(*path)
	if err != nil {
		log.Error("seed file load failed", "error", err)
		os.Exit(1)
	}
	res, err := seed.Apply(context.Background(), repository.NewPricingRepository(db), f, log)
	if err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("seed complete", "seasons_created", res.SeasonsCreated, "surcharges_created", res.SurchargesCreated)
}
