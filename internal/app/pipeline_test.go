package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lodging_console_v1_202610/internal/service"
	"lodging_console_v1_202610/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Uploader: "backend",
		Backend:  config.BackendConfig{BaseURL: "http://backend.test"},
		Storage:  config.StorageConfig{Provider: "local", BasePath: t.TempDir()},
	}
}

func TestNewUploader_Backend(t *testing.T) {
	cfg := testConfig(t)
	uploader, err := NewUploader(cfg, NewBackendClient(cfg.Backend), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.BackendUploader{}, uploader)
}

func TestNewUploader_LocalStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Uploader = "storage"

	uploader, err := NewUploader(cfg, NewBackendClient(cfg.Backend), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.StorageUploader{}, uploader)
}

func TestNewUploader_Invalid(t *testing.T) {
	cfg := testConfig(t)
	cfg.Uploader = "ftp"
	_, err := NewUploader(cfg, NewBackendClient(cfg.Backend), zap.NewNop())
	assert.Error(t, err)

	cfg.Uploader = "storage"
	cfg.Storage.Provider = "dropbox"
	_, err = NewUploader(cfg, NewBackendClient(cfg.Backend), zap.NewNop())
	assert.Error(t, err)
}

func TestNewPipeline(t *testing.T) {
	p, err := NewPipeline(testConfig(t), nil, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, p.Backend)
	assert.NotNil(t, p.Submit.Validator)
	assert.NotNil(t, p.Submit.Compressor)
	assert.NotNil(t, p.Submit.Uploads)
	assert.NotNil(t, p.Submit.Assembler)
	assert.Same(t, p.Backend, p.Submit.Publisher)
	assert.Nil(t, p.Submit.Recorder)
}
