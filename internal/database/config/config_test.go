package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		cfg := LoadConfigFromEnv()
		expected := Config{
			Host:               "localhost",
			User:               "postgres",
			Password:           "postgres",
			DBName:             "prmetrics",
			Port:               "5432",
			SSLMode:            "disable",
			TimeZone:           "UTC",
			LockTimeout:        5 * time.Second,
			SlowQueryThreshold: 200 * time.Millisecond,
		}
		assert.Equal(t, expected, cfg)
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_NAME", "metrics")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("DB_LOCK_TIMEOUT", "750ms")
		t.Setenv("DB_SLOW_QUERY_THRESHOLD", "1s")

		cfg := LoadConfigFromEnv()
		assert.Equal(t, "db", cfg.Host)
		assert.Equal(t, "metrics", cfg.DBName)
		assert.Equal(t, "5433", cfg.Port)
		assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
		assert.Equal(t, time.Second, cfg.SlowQueryThreshold)
	})
}

func TestBuildDSN(t *testing.T) {
	cfg := Config{
		Host: "localhost", User: "u", Password: "p", DBName: "d",
		Port: "5432", SSLMode: "disable", TimeZone: "UTC",
	}
	assert.Equal(t,
		"host=localhost user=u password=p dbname=d port=5432 sslmode=disable TimeZone=UTC",
		BuildDSN(cfg))
}

func TestSanitizeError(t *testing.T) {
	cfg := Config{
		Host: "localhost", User: "u", Password: "s3cret", DBName: "d",
		Port: "5432", SSLMode: "disable", TimeZone: "UTC",
	}

	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, SanitizeError(nil, cfg))
	})

	t.Run("password is masked", func(t *testing.T) {
		err := SanitizeError(errors.New("cannot open "+BuildDSN(cfg)), cfg)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "s3cret")
		assert.Contains(t, err.Error(), "password=***")
		assert.Contains(t, err.Error(), "failed to connect to database")
	})
}

func TestLoadRetryConfigFromEnv(t *testing.T) {
	t.Setenv("DB_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("DB_RETRY_INITIAL_DELAY", "10ms")

	cfg := LoadRetryConfigFromEnv()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.InitialDelay)
	assert.NotNil(t, cfg.Retryable)
}
