package config

import "fmt"

const (
	// EventsBackendSync dispatches internal events in the request goroutine.
	EventsBackendSync = "sync"
	// EventsBackendAsynq enqueues internal events on Redis through asynq.
	EventsBackendAsynq = "asynq"
)

// EventsConfig holds internal event delivery configuration.
type EventsConfig struct {
	// Backend is sync or asynq.
	Backend string
	// RedisAddr is the Redis address used by the asynq backend.
	RedisAddr string
	// RedisPassword is the Redis password used by the asynq backend.
	RedisPassword string
	// RedisDB is the Redis database index used by the asynq backend.
	RedisDB int
	// Queue is the asynq queue name.
	Queue string
	// Concurrency is the number of asynq worker goroutines.
	Concurrency int
	// MaxRetry is the number of asynq redeliveries before a task is archived.
	MaxRetry int
}

// LoadEventsConfigFromEnv loads event configuration from environment variables.
func LoadEventsConfigFromEnv() EventsConfig {
	return EventsConfig{
		Backend:       GetEnv("EVENTS_BACKEND", EventsBackendSync),
		RedisAddr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),
		Queue:         GetEnv("EVENTS_QUEUE", "derived-metrics"),
		Concurrency:   GetEnvInt("EVENTS_CONCURRENCY", 10),
		MaxRetry:      GetEnvInt("EVENTS_MAX_RETRY", 10),
	}
}

// Validate validates event configuration.
func (c EventsConfig) Validate() error {
	switch c.Backend {
	case EventsBackendSync:
		return nil
	case EventsBackendAsynq:
	default:
		return fmt.Errorf("invalid EVENTS_BACKEND: %s (must be: sync, asynq)", c.Backend)
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the asynq backend")
	}
	if c.Queue == "" {
		return fmt.Errorf("EVENTS_QUEUE must not be empty")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("EVENTS_CONCURRENCY must be greater than 0")
	}
	if c.MaxRetry < 0 {
		return fmt.Errorf("EVENTS_MAX_RETRY must be non-negative")
	}
	return nil
}
