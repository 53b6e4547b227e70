package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("EDIT_TOKEN_SECRET", "0123456789abcdef0123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 30*24*time.Hour, cfg.Tokens.EditTokenTTL)
	assert.Equal(t, "en", cfg.Locale.DefaultLanguage)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user=greetcard password=greetcard dbname=greetcard sslmode=disable", cfg.Database.DSN())
}

func TestLoadReadsEnvAndEnvFile(t *testing.T) {
	setRequiredEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("VIEWER_BASE_URL=https://cards.example/view\nFRONTEND_BASE_URL=https://cards.example\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("EDIT_TOKEN_TTL", "48h")
	t.Setenv("DEFAULT_LANGUAGE", "hi")
	t.Cleanup(func() {
		os.Unsetenv("VIEWER_BASE_URL")
		os.Unsetenv("FRONTEND_BASE_URL")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cards.example/view", cfg.API.ViewerBaseURL)
	assert.Equal(t, "https://cards.example", cfg.Worker.FrontendBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 48*time.Hour, cfg.Tokens.EditTokenTTL)
	assert.Equal(t, "hi", cfg.Locale.DefaultLanguage)
}

func TestLoadRejectsShortTokenSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EDIT_TOKEN_SECRET", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "edit token secret")
}
