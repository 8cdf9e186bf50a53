package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	gormlogger "gorm.io/gorm/logger"

	"cottage/internal/app"
	"cottage/internal/config"
	"cottage/internal/database"
	"cottage/internal/modules/telegram"
	"cottage/internal/pkg/logger"
	"cottage/internal/repository"
	"cottage/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(log)

	dbLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		dbLevel = gormlogger.Info
	}
	db, err := database.Connect(cfg.DatabaseURL, database.Options{Logger: log, LogLevel: dbLevel})
	if err != nil {
		log.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var tg telegram.Client
	if cfg.TelegramEnabled() {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			// The site keeps taking bookings without the bot.
			log.Error("telegram init failed, notifications disabled", "error", err)
		} else {
			log.Info("telegram bot authorised", "username", api.Self.UserName, "webhook", cfg.TelegramUseWebhook)
			tg = api
		}
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, notifications disabled")
	}
	if cfg.TelegramAdminChatID == 0 {
		log.Warn("TELEGRAM_ADMIN_CHAT_ID not set, admin notifications disabled")
	}

	a, err := app.New(cfg, db, tg, reg, log, app.Options{})
	if err != nil {
		log.Error("app init failed", "error", err)
		os.Exit(1)
	}
	a.Start(ctx, cfg)

	srv := server.New(cfg.HTTPAddr, a.Router)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
	}()

	log.Info("HTTP server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server failed", "error", err)
		stop()
		<-a.Dispatcher.Done()
		os.Exit(1)
	}

	select {
	case <-a.Dispatcher.Done():
	case <-time.After(15 * time.Second):
		log.Warn("notification queue did not drain in time")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("HTTP server stopped")
}
