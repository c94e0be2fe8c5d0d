// Package config loads application settings from the environment, optionally
// layered over a YAML file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	EncryptionKey                    string `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `mapstructure:"STRIPE_PRICE_ID"`

	MercadoPagoAccessToken     string  `mapstructure:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoBaseURL         string  `mapstructure:"MERCADOPAGO_BASE_URL"`
	MercadoPagoNotificationURL string  `mapstructure:"MERCADOPAGO_NOTIFICATION_URL"`
	PremiumPriceARS            float64 `mapstructure:"PREMIUM_PRICE_ARS"`

	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	OpenRouterAPIKey  string        `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterModel   string        `mapstructure:"OPENROUTER_MODEL"`
	OpenRouterBaseURL string        `mapstructure:"OPENROUTER_BASE_URL"`
	AICacheTTL        time.Duration `mapstructure:"AI_CACHE_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`
}

var keys = []string{
	"PORT", "GIN_MODE",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"ENCRYPTION_KEY", "CLIENT_URL",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_PRICE_ID",
	"MERCADOPAGO_ACCESS_TOKEN", "MERCADOPAGO_BASE_URL", "MERCADOPAGO_NOTIFICATION_URL", "PREMIUM_PRICE_ARS",
	"GEMINI_API_KEY", "GEMINI_MODEL", "OPENROUTER_API_KEY", "OPENROUTER_MODEL", "OPENROUTER_BASE_URL", "AI_CACHE_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
}

// LoadConfig loads configuration from environment variables using Viper.
// When CONFIG_FILE is set, that YAML file supplies values the environment does not.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com")
	v.SetDefault("PREMIUM_PRICE_ARS", 4999.0)
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("AI_CACHE_TTL", "24h")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_QUEUE", "fitcoach.events")
	v.SetDefault("SMTP_HOST", "smtp.mailtrap.io")
	v.SetDefault("SMTP_PORT", "2525")
	v.SetDefault("MAIL_FROM", "noreply@fitcoach.app")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	_ = v.BindEnv("CONFIG_FILE")
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields. Application Default Credentials are used when
// neither credential option is set.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}
	if c.PremiumPriceARS < 0 {
		return errors.New("PREMIUM_PRICE_ARS must not be negative")
	}
	return nil
}

// IsRelease reports whether Gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// AIEnabled reports whether at least one AI provider is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != "" || c.OpenRouterAPIKey != ""
}
