// Package server assembles the HTTP surface of the site.
package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cottage/internal/middleware"
	"cottage/internal/modules/admin"
	"cottage/internal/modules/auth"
	"cottage/internal/modules/availability"
	"cottage/internal/modules/booking"
	"cottage/internal/modules/pricing"
	"cottage/internal/modules/telegram"
	"cottage/internal/pkg/jwt"
	"cottage/internal/pkg/response"
)

// Handlers groups the module handlers. Nil entries are not mounted.
type Handlers struct {
	Auth         *auth.Handler
	Booking      *booking.Handler
	Availability *availability.Handler
	Pricing      *pricing.Handler
	Admin        *admin.Handler
	Telegram     *telegram.WebhookHandler
}

type Options struct {
	Env            string
	AdminKey       string
	AllowedOrigins []string
	Tokens         *jwt.Service
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
	Log            *slog.Logger
}

func NewRouter(opts Options, h Handlers) *gin.Engine {
	configureGinMode(opts.Env)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.Handler())
	}

	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	if h.Availability != nil {
		h.Availability.RegisterWS(r)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.OptionalJWT(opts.Tokens))
	{
		if h.Auth != nil {
			h.Auth.RegisterPublicRoutes(v1)
		}
		if h.Availability != nil {
			h.Availability.RegisterRoutes(v1)
		}
		if h.Pricing != nil {
			h.Pricing.RegisterRoutes(v1)
		}
		if h.Booking != nil {
			h.Booking.RegisterRoutes(v1)
		}
		if h.Telegram != nil {
			h.Telegram.RegisterRoutes(v1)
		}
	}

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(opts.Tokens))
	{
		if h.Auth != nil {
			h.Auth.RegisterProtectedRoutes(protected)
		}
		if h.Booking != nil {
			h.Booking.RegisterUserRoutes(protected)
		}
	}

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AdminOnly(opts.AdminKey))
	{
		if h.Admin != nil {
			h.Admin.RegisterRoutes(adminGroup)
		}
		if h.Pricing != nil {
			h.Pricing.RegisterAdminRoutes(adminGroup)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	return r
}

// New wraps the router in a server with conservative timeouts. Writes are
// not bounded: the availability socket is long-lived.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func configureGinMode(env string) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test", "testing":
		gin.SetMode(gin.TestMode)
	case "prod", "production", "release":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
