// Package config provides database configuration management.
package config

import (
	"fmt"
	"strings"
	"time"

	appConfig "github.com/festy23/prmetrics/internal/config"
	"github.com/festy23/prmetrics/pkg/retry"
)

// Config holds database connection configuration.
type Config struct {
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
	TimeZone string
	// LockTimeout bounds how long a webhook transaction waits for a pull request row lock.
	LockTimeout time.Duration
	// SlowQueryThreshold is the duration above which statements are logged as slow.
	SlowQueryThreshold time.Duration
}

// BuildDSN constructs PostgreSQL DSN string from configuration.
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Host:               appConfig.GetEnv("DB_HOST", "localhost"),
		User:               appConfig.GetEnv("DB_USER", "postgres"),
		Password:           appConfig.GetEnv("DB_PASSWORD", "postgres"),
		DBName:             appConfig.GetEnv("DB_NAME", "prmetrics"),
		Port:               appConfig.GetEnv("DB_PORT", "5432"),
		SSLMode:            appConfig.GetEnv("DB_SSLMODE", "disable"),
		TimeZone:           appConfig.GetEnv("DB_TIMEZONE", "UTC"),
		LockTimeout:        appConfig.GetEnvDuration("DB_LOCK_TIMEOUT", 5*time.Second),
		SlowQueryThreshold: appConfig.GetEnvDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
	}
}

// SanitizeError removes the password and the full DSN from connection error messages.
func SanitizeError(err error, cfg Config) error {
	if err == nil {
		return nil
	}
	errMsg := err.Error()
	if cfg.Password != "" {
		errMsg = strings.ReplaceAll(errMsg, BuildDSN(cfg), safeDSN(cfg))
		errMsg = strings.ReplaceAll(errMsg, cfg.Password, "***")
	}
	return fmt.Errorf("failed to connect to database: %s", errMsg)
}

func safeDSN(cfg Config) string {
	masked := cfg
	masked.Password = "***"
	return BuildDSN(masked)
}

// LoadRetryConfigFromEnv loads connection retry configuration from environment variables.
func LoadRetryConfigFromEnv() retry.Config {
	cfg := retry.ConnectConfig()
	cfg.MaxAttempts = appConfig.GetEnvInt("DB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = appConfig.GetEnvDuration("DB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = appConfig.GetEnvDuration("DB_RETRY_MAX_DELAY", cfg.MaxDelay)
	cfg.Multiplier = appConfig.GetEnvFloat("DB_RETRY_MULTIPLIER", cfg.Multiplier)
	return cfg
}
