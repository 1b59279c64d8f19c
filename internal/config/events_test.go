package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsConfig_Validate(t *testing.T) {
	asynqCfg := EventsConfig{
		Backend:     EventsBackendAsynq,
		RedisAddr:   "localhost:6379",
		Queue:       "derived-metrics",
		Concurrency: 4,
		MaxRetry:    3,
	}

	t.Run("sync needs nothing else", func(t *testing.T) {
		assert.NoError(t, EventsConfig{Backend: EventsBackendSync}.Validate())
	})

	t.Run("valid asynq", func(t *testing.T) {
		assert.NoError(t, asynqCfg.Validate())
	})

	t.Run("asynq without redis", func(t *testing.T) {
		cfg := asynqCfg
		cfg.RedisAddr = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("asynq with zero concurrency", func(t *testing.T) {
		cfg := asynqCfg
		cfg.Concurrency = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		assert.Error(t, EventsConfig{Backend: "nats"}.Validate())
	})
}
