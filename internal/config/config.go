package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded zone database: minimal images ship without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"cottage/internal/pkg/validator"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultDatabaseURL = "cottage.db"
	defaultJWTSecret   = "change-me-jwt-secret"
	defaultAdminKey    = "change-me-admin-key"
	defaultJWTTTL      = "720h"
	defaultTimezone    = "Europe/Kyiv"
	defaultCurrency    = "UAH"
	defaultCountryCode = "380"
	defaultPublicURL   = "http://localhost:8080"
	defaultQueueSize   = "256"
)

type Config struct {
	AppEnv      string `validate:"required"`
	LogLevel    string
	HTTPAddr    string `validate:"required"`
	DatabaseURL string `validate:"required"`

	JWTSecret string        `validate:"required,min=8"`
	JWTTTL    time.Duration `validate:"gt=0"`
	AdminKey  string        `validate:"required,min=8"`

	Timezone    string `validate:"required"`
	Location    *time.Location
	Currency    string `validate:"required,len=3"`
	CountryCode string `validate:"required,numeric"`
	PublicURL   string `validate:"required,url"`

	TelegramToken         string
	TelegramAdminChatID   int64
	TelegramWebhookSecret string
	TelegramUseWebhook    bool

	NotifyQueueSize int `validate:"gte=1"`

	PaymentRecipient string
	PaymentIBAN      string

	CORSAllowedOrigins []string
	MetricsEnabled     bool
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.AdminKey = strings.TrimSpace(getEnv("ADMIN_KEY", defaultAdminKey))
	cfg.Timezone = strings.TrimSpace(getEnv("TIMEZONE", defaultTimezone))
	cfg.Currency = strings.ToUpper(strings.TrimSpace(getEnv("CURRENCY", defaultCurrency)))
	cfg.CountryCode = strings.TrimPrefix(strings.TrimSpace(getEnv("PHONE_COUNTRY_CODE", defaultCountryCode)), "+")
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_URL", defaultPublicURL)), "/")

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.TelegramWebhookSecret = strings.TrimSpace(os.Getenv("TELEGRAM_WEBHOOK_SECRET"))
	cfg.TelegramUseWebhook = parseBoolEnv("TELEGRAM_USE_WEBHOOK", "false")
	cfg.PaymentRecipient = strings.TrimSpace(os.Getenv("PAYMENT_RECIPIENT"))
	cfg.PaymentIBAN = strings.TrimSpace(os.Getenv("PAYMENT_IBAN"))
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	cfg.MetricsEnabled = parseBoolEnv("METRICS_ENABLED", "true")

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_ADMIN_CHAT_ID")); raw != "" {
		cfg.TelegramAdminChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_CHAT_ID value %q: %w", raw, err)
		}
	}
	cfg.NotifyQueueSize, err = strconv.Atoi(strings.TrimSpace(getEnv("NOTIFY_QUEUE_SIZE", defaultQueueSize)))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %w", err)
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE value %q: %w", cfg.Timezone, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if err := validator.Struct(cfg); err != nil {
		return err
	}
	if cfg.TelegramUseWebhook && cfg.TelegramWebhookSecret == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_SECRET must be set when TELEGRAM_USE_WEBHOOK=true")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.AdminKey, defaultAdminKey) {
			return fmt.Errorf("in prod/release ADMIN_KEY must be set and not default")
		}
	}
	return nil
}

// TelegramEnabled reports whether the bot and notifications can run.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

func (c *Config) IsProdLike() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
