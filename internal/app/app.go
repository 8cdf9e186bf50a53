// Package app wires repositories, services and transports into a runnable
// application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"cottage/internal/config"
	"cottage/internal/middleware"
	"cottage/internal/modules/admin"
	"cottage/internal/modules/auth"
	"cottage/internal/modules/availability"
	"cottage/internal/modules/booking"
	"cottage/internal/modules/linking"
	"cottage/internal/modules/pricing"
	"cottage/internal/modules/telegram"
	"cottage/internal/notification"
	"cottage/internal/pkg/contact"
	"cottage/internal/pkg/jwt"
	"cottage/internal/repository"
	"cottage/internal/server"
)

// Options tune wiring for tests.
type Options struct {
	Now        func() time.Time
	BcryptCost int
}

type App struct {
	Router     *gin.Engine
	Dispatcher *notification.Dispatcher
	Hub        *availability.Hub
	Bookings   *booking.Service
	Notifier   *notification.Notifier

	// Bot is nil when no Telegram client was supplied.
	Bot *telegram.Bot
}

// New builds the application. tg may be nil, in which case notifications
// are dropped and the bot is not started.
func New(cfg *config.Config, db *gorm.DB, tg telegram.Client, reg *prometheus.Registry, log *slog.Logger, opts Options) (*App, error) {
	normalizer := contact.Normalizer{CountryCode: cfg.CountryCode}
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	pricingRepo := repository.NewPricingRepository(db)

	var sender notification.Sender
	if tg != nil {
		sender = notification.NewTelegramSender(tg)
	}
	dispatcher := notification.NewDispatcher(sender, cfg.NotifyQueueSize, log, reg)
	notifier := notification.NewNotifier(dispatcher, cfg.TelegramAdminChatID, cfg.PublicURL)

	availabilityService := availability.NewService(bookingRepo)
	hub := availability.NewHub(availabilityService, log, originChecker(cfg.CORSAllowedOrigins))

	pricingService := pricing.NewService(pricingRepo, cfg.Currency)
	resolver := linking.NewResolver(userRepo, bookingRepo, log)

	bookingService := booking.NewService(
		bookingRepo,
		userRepo,
		pricingService,
		notifier,
		hub,
		booking.NewMetrics(reg),
		log,
		booking.Options{
			AdminKey:         cfg.AdminKey,
			Location:         cfg.Location,
			Normalizer:       normalizer,
			Currency:         cfg.Currency,
			PaymentRecipient: cfg.PaymentRecipient,
			PaymentIBAN:      cfg.PaymentIBAN,
			Now:              opts.Now,
		},
	)

	var authOpts []auth.Option
	if opts.BcryptCost > 0 {
		authOpts = append(authOpts, auth.WithBcryptCost(opts.BcryptCost))
	}
	authService := auth.NewService(userRepo, resolver, bookingRepo, tokens, normalizer, log, authOpts...)
	adminService := admin.NewService(bookingService, cfg.Location)

	a := &App{
		Dispatcher: dispatcher,
		Hub:        hub,
		Bookings:   bookingService,
		Notifier:   notifier,
	}

	handlers := server.Handlers{
		Auth:         auth.NewHandler(authService, log),
		Booking:      booking.NewHandler(bookingService, log),
		Availability: availability.NewHandler(availabilityService, hub, log),
		Pricing:      pricing.NewHandler(pricingService),
		Admin:        admin.NewHandler(adminService, log),
	}

	if tg != nil {
		bot, err := telegram.New(tg, telegram.Deps{
			Bookings:    bookingService,
			Users:       userRepo,
			Linker:      resolver,
			Receipts:    notifier,
			Normalizer:  normalizer,
			AdminChatID: cfg.TelegramAdminChatID,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("telegram bot: %w", err)
		}
		a.Bot = bot
		if cfg.TelegramUseWebhook {
			handlers.Telegram = telegram.NewWebhookHandler(bot, cfg.TelegramWebhookSecret)
		}
	}

	routerOpts := server.Options{
		Env:            cfg.AppEnv,
		AdminKey:       cfg.AdminKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Tokens:         tokens,
		Log:            log,
	}
	if cfg.MetricsEnabled {
		routerOpts.HTTPMetrics = middleware.NewHTTPMetrics(reg)
		routerOpts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	a.Router = server.NewRouter(routerOpts, handlers)
	return a, nil
}

// Start runs the background workers: the notification queue always, the
// polling bot unless updates arrive by webhook.
func (a *App) Start(ctx context.Context, cfg *config.Config) {
	go a.Dispatcher.Run(ctx)
	if a.Bot != nil && !cfg.TelegramUseWebhook {
		go a.Bot.Run(ctx)
	}
}

// originChecker admits websocket upgrades from the configured origins, or
// from anywhere when none are configured.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
