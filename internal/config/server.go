package config

import (
	"errors"
	"net"
	"strings"
	"time"
)

// DefaultMaxBodyBytes matches the largest webhook payload GitHub delivers.
const DefaultMaxBodyBytes = 25 << 20

// ServerConfig configures the HTTP listener that receives webhooks and serves statistics.
type ServerConfig struct {
	Host string
	// Port accepts both ":8080" and "8080".
	Port string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps webhook request bodies. Zero disables the cap.
	MaxBodyBytes int64
}

// LoadServerConfigFromEnv reads SERVER_* variables.
func LoadServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Host:            GetEnv("SERVER_HOST", ""),
		Port:            GetEnv("SERVER_PORT", ":8080"),
		ReadTimeout:     GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    GetEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:     GetEnvDuration("SERVER_IDLE_TIMEOUT", 2*time.Minute),
		ShutdownTimeout: GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxBodyBytes:    int64(GetEnvInt("SERVER_MAX_BODY_BYTES", DefaultMaxBodyBytes)),
	}
}

// GetAddress returns the listen address in host:port form.
func (c ServerConfig) GetAddress() string {
	port := strings.TrimPrefix(c.Port, ":")
	if c.Host == "" {
		return ":" + port
	}
	return net.JoinHostPort(c.Host, port)
}

// Validate validates server configuration.
func (c ServerConfig) Validate() error {
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"SERVER_READ_TIMEOUT", c.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", c.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", c.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return errors.New(t.name + " must be greater than 0")
		}
	}
	if c.MaxBodyBytes < 0 {
		return errors.New("SERVER_MAX_BODY_BYTES must not be negative")
	}
	return nil
}
