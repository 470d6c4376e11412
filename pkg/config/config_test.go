package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "files", cfg.Backend.UploadField)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 1<<20, cfg.Compression.MaxBytes)
	assert.Equal(t, uint(1920), cfg.Compression.MaxDimension)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "backend", cfg.Uploader)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	file := filepath.Join(dir, "console.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend:
  base_url: https://api.example.com
  retry_count: 5
session:
  idle_ttl: 45m
uploader: storage
storage:
  provider: s3
  bucket: listing-assets
`), 0o644))

	t.Setenv("CONSOLE_BACKEND_RETRY_COUNT", "1")
	t.Setenv("CONSOLE_SERVER_PORT", "9090")

	cfg, err := Load(file, "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 1, cfg.Backend.RetryCount)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, "storage", cfg.Uploader)
	assert.Equal(t, "listing-assets", cfg.Storage.Bucket)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONSOLE_LOG_LEVEL=debug\nCONSOLE_AUTH_JWT_SECRET=s3cret\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("CONSOLE_LOG_LEVEL")
		os.Unsetenv("CONSOLE_AUTH_JWT_SECRET")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONSOLE_UPLOADER", "ftp")

	_, err := Load("", "")
	assert.Error(t, err)

	_, err = Load("", "missing.env")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
