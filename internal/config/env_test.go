package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PRM_TEST_STRING", "value")
	assert.Equal(t, "value", GetEnv("PRM_TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnv("PRM_TEST_MISSING", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PRM_TEST_INT", "42")
	t.Setenv("PRM_TEST_BAD_INT", "forty-two")
	assert.Equal(t, 42, GetEnvInt("PRM_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("PRM_TEST_BAD_INT", 7))
	assert.Equal(t, 7, GetEnvInt("PRM_TEST_MISSING", 7))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("PRM_TEST_FLOAT", "0.5")
	assert.InDelta(t, 0.5, GetEnvFloat("PRM_TEST_FLOAT", 1), 1e-9)
	assert.InDelta(t, 1.0, GetEnvFloat("PRM_TEST_MISSING", 1), 1e-9)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("PRM_TEST_DURATION", "3s")
	t.Setenv("PRM_TEST_BAD_DURATION", "3")
	assert.Equal(t, 3*time.Second, GetEnvDuration("PRM_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("PRM_TEST_BAD_DURATION", time.Second))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("PRM_TEST_BOOL", "true")
	assert.True(t, GetEnvBool("PRM_TEST_BOOL", false))
	assert.False(t, GetEnvBool("PRM_TEST_MISSING", false))
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads without overriding existing variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("PRM_DOTENV_NEW=from-file\nPRM_DOTENV_SET=from-file\n"), 0o600))
		t.Setenv("PRM_DOTENV_SET", "from-env")
		t.Setenv("PRM_DOTENV_NEW", "")
		require.NoError(t, os.Unsetenv("PRM_DOTENV_NEW"))

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-file", os.Getenv("PRM_DOTENV_NEW"))
		assert.Equal(t, "from-env", os.Getenv("PRM_DOTENV_SET"))
	})
}
