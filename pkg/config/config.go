package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Pricing  PricingConfig
	Sync     SyncConfig
	Webhook  WebhookConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// PricingConfig holds the wholesale pricing tunables
type PricingConfig struct {
	MinProfit       float64
	MaxProfit       float64
	MinMargin       float64
	MaxMargin       float64
	MidProfit       float64
	MOQTargetProfit float64
}

// SyncConfig holds catalog reconciliation job configuration
type SyncConfig struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	// DailyHourUTC is the hour of day (UTC) the scheduled run fires.
	DailyHourUTC int
}

// WebhookConfig holds the outbound status notification configuration
type WebhookConfig struct {
	URL   string
	Token string
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8085"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "catalog_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "catalogservicesecretkey"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION_TIME", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "catalog"),
		},
		Pricing: PricingConfig{
			MinProfit:       getEnvAsFloat("PRICING_MIN_PROFIT", 1.0),
			MaxProfit:       getEnvAsFloat("PRICING_MAX_PROFIT", 10),
			MinMargin:       getEnvAsFloat("PRICING_MIN_MARGIN", 0.14),
			MaxMargin:       getEnvAsFloat("PRICING_MAX_MARGIN", 0.36),
			MidProfit:       getEnvAsFloat("PRICING_MID_PROFIT", 2.5),
			MOQTargetProfit: getEnvAsFloat("PRICING_MOQ_TARGET_PROFIT", 250),
		},
		Sync: SyncConfig{
			BatchSize:    getEnvAsInt("SYNC_BATCH_SIZE", 100),
			MaxRetries:   getEnvAsInt("SYNC_MAX_RETRIES", 3),
			RetryDelay:   getEnvAsDuration("SYNC_RETRY_DELAY", 5*time.Second),
			DailyHourUTC: getEnvAsInt("SYNC_DAILY_HOUR_UTC", 4),
		},
		Webhook: WebhookConfig{
			URL:   getEnv("WEBHOOK_URL", ""),
			Token: getEnv("WEBHOOK_TOKEN", ""),
		},
	}, nil
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
