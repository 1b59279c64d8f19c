package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggerConfig
		wantErr bool
	}{
		{"valid json", LoggerConfig{Level: "info", Format: "json", Output: "stdout"}, false},
		{"valid console", LoggerConfig{Level: "debug", Format: "console", Output: "stderr"}, false},
		{"invalid level", LoggerConfig{Level: "trace", Format: "json", Output: "stdout"}, true},
		{"invalid format", LoggerConfig{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"empty output", LoggerConfig{Level: "info", Format: "json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggerConfig_IsProduction(t *testing.T) {
	assert.True(t, LoggerConfig{Level: "info", Format: "json"}.IsProduction())
	assert.False(t, LoggerConfig{Level: "debug", Format: "json"}.IsProduction())
	assert.False(t, LoggerConfig{Level: "info", Format: "console"}.IsProduction())
}
