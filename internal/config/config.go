package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        int
	Environment string
	JWTSecret   string
	CORSOrigins []string
	LogDir      string

	Database DatabaseConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Monitor  MonitorConfig
	Alert    AlertConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds queue backend configuration
type RedisConfig struct {
	URL string
}

// SMTPConfig holds mail transport configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MonitorConfig holds probe and flush pipeline settings
type MonitorConfig struct {
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
	DefaultRegion  string
	FlushInterval  time.Duration
	FlushBatchSize int
	RetentionDays  int
}

// AlertConfig holds evaluation cadence and thresholds
type AlertConfig struct {
	EvaluateInterval   time.Duration
	ErrorRateThreshold float64
	UptimeThreshold    float64
	Cooldown           time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("ENVIRONMENT", "production")

	cfg := &Config{
		Port:        getEnvInt("PORT", 3000),
		Environment: env,
		JWTSecret:   loadJWTSecret(env),
		CORSOrigins: loadCORSOrigins(env),
		LogDir:      getEnv("LOG_DIR", "./logs"),
		Database: DatabaseConfig{
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Monitor: MonitorConfig{
			ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
			ProbeInterval:  getEnvDuration("PROBE_INTERVAL", time.Minute),
			DefaultRegion:  getEnv("DEFAULT_REGION", "US_EAST_1"),
			FlushInterval:  getEnvDuration("FLUSH_INTERVAL", time.Minute),
			FlushBatchSize: getEnvInt("FLUSH_BATCH_SIZE", 100),
			RetentionDays:  getEnvInt("RETENTION_DAYS", 30),
		},
		Alert: AlertConfig{
			EvaluateInterval:   getEnvDuration("EVALUATE_INTERVAL", 5*time.Minute),
			ErrorRateThreshold: getEnvFloat("ERROR_RATE_THRESHOLD", 5),
			UptimeThreshold:    getEnvFloat("UPTIME_THRESHOLD", 90),
			Cooldown:           getEnvDuration("ALERT_COOLDOWN", 30*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "watchtower")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "watchtower")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Environment == "production" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}

	if c.Monitor.ProbeInterval < time.Second {
		return fmt.Errorf("PROBE_INTERVAL must be at least 1s")
	}

	if c.Monitor.FlushBatchSize <= 0 {
		return fmt.Errorf("FLUSH_BATCH_SIZE must be positive")
	}

	if c.Alert.ErrorRateThreshold < 0 || c.Alert.ErrorRateThreshold > 100 {
		return fmt.Errorf("ERROR_RATE_THRESHOLD must be between 0 and 100")
	}

	if c.Alert.UptimeThreshold < 0 || c.Alert.UptimeThreshold > 100 {
		return fmt.Errorf("UPTIME_THRESHOLD must be between 0 and 100")
	}

	return nil
}

func loadJWTSecret(env string) string {
	secret := os.Getenv("JWT_SECRET")

	// If JWT_SECRET is not set, generate a random one for development
	if secret == "" {
		if env == "production" {
			log.Fatal("FATAL: JWT_SECRET environment variable is required in production")
		}

		log.Println("WARNING: JWT_SECRET not set. Generating random secret for development.")
		log.Println("WARNING: This secret will change on restart. Set JWT_SECRET in production!")
		return generateRandomSecret()
	}

	if len(secret) < 16 {
		log.Fatal("FATAL: JWT_SECRET must be at least 16 characters long")
	}

	return secret
}

func loadCORSOrigins(env string) []string {
	if appURL := getAppURL(); appURL != "" {
		return []string{appURL}
	}

	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:8080"}
	}

	log.Println("WARNING: APP_URL not set. Using default localhost origins.")
	log.Println("WARNING: Set APP_URL environment variable for production deployments.")
	return []string{"http://localhost:3000", "http://localhost:8080"}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate random secret:", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

func getAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/")
}
