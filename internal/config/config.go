// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// DefaultSessionSecret signs session cookies when SESSION_SECRET is unset.
const DefaultSessionSecret = "devsessionsecret"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Pricing  PricingConfig
	Checkout CheckoutConfig
	Cart     CartConfig
	Mail     MailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the driver and holds its connection settings.
type DatabaseConfig struct {
	Driver     string // "sqlite" or "postgres"
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Debug      bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	Seed          bool
	SampleCart    bool
	SessionSecret string
}

// PricingConfig holds the order total constants.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	ExpressShippingFee    decimal.Decimal
	TaxRate               decimal.Decimal
}

// CheckoutConfig holds submission settings.
type CheckoutConfig struct {
	ProcessingDelay time.Duration
}

// CartConfig controls how long unused carts are kept in memory.
type CartConfig struct {
	IdleTTL        time.Duration
	ExpireInterval time.Duration
}

// MailConfig holds SendGrid settings. Receipts are disabled without an API key.
type MailConfig struct {
	SendGridAPIKey string
	From           string
	FromName       string
}

// Enabled reports whether receipts can be sent.
func (m MailConfig) Enabled() bool { return m.SendGridAPIKey != "" }

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Policy converts the pricing settings to a pricing.Policy.
func (p PricingConfig) Policy() pricing.Policy {
	return pricing.Policy{
		FreeShippingThreshold: p.FreeShippingThreshold,
		FlatShippingFee:       p.FlatShippingFee,
		ExpressShippingFee:    p.ExpressShippingFee,
		TaxRate:               p.TaxRate,
	}
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	def := pricing.DefaultPolicy()
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "storefront.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "storefront"),
			Password:   getEnv("DB_PASSWORD", "storefront"),
			DBName:     getEnv("DB_NAME", "storefront"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			Seed:          getEnvBool("DB_SEED", true),
			SampleCart:    getEnvBool("SAMPLE_CART", false),
			SessionSecret: getEnv("SESSION_SECRET", DefaultSessionSecret),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: getEnvDecimal("FREE_SHIPPING_THRESHOLD", def.FreeShippingThreshold),
			FlatShippingFee:       getEnvDecimal("FLAT_SHIPPING_FEE", def.FlatShippingFee),
			ExpressShippingFee:    getEnvDecimal("EXPRESS_SHIPPING_FEE", def.ExpressShippingFee),
			TaxRate:               getEnvDecimal("TAX_RATE", def.TaxRate),
		},
		Checkout: CheckoutConfig{
			ProcessingDelay: getEnvDuration("CHECKOUT_DELAY", 2*time.Second),
		},
		Cart: CartConfig{
			IdleTTL:        getEnvDuration("CART_IDLE_TTL", 24*time.Hour),
			ExpireInterval: getEnvDuration("CART_EXPIRE_INTERVAL", 10*time.Minute),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			From:           getEnv("MAIL_FROM", "orders@bbi4.example"),
			FromName:       getEnv("MAIL_FROM_NAME", "BBI4"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDecimal parses an exact decimal amount such as "35.00".
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil && !d.IsNegative() {
			return d
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("2s", "1500ms") or whole milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
