package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"cottage/internal/config"
	"cottage/internal/database"
	"cottage/internal/domain"
	"cottage/internal/modules/auth"
	"cottage/internal/modules/linking"
	"cottage/internal/pkg/contact"
	"cottage/internal/pkg/jwt"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
)

// set_role grants or revokes the ADMIN role for an existing account:
//
//	set_role -contact owner@mail.com -role ADMIN
func main() {
	rawContact := flag.String("contact", "", "email, phone or telegram handle of the account")
	role := flag.String("role", string(domain.RoleAdmin), "USER or ADMIN")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	if strings.TrimSpace(*rawContact) == "" {
		log.Error("-contact is required")
		os.Exit(2)
	}

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
	normalizer := contact.Normalizer{CountryCode: cfg.CountryCode}
	svc := auth.NewService(
		users,
		linking.NewResolver(users, bookings, log),
		bookings,
		jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		normalizer,
		log,
	)

	u, err := svc.SetRole(context.Background(), *rawContact, domain.UserRole(strings.ToUpper(*role)))
	if err != nil {
		log.Error("set role failed", "contact", *rawContact, "error", err)
		os.Exit(1)
	}
	log.Info("role set", "user_id", u.ID, "role", u.Role)
}
