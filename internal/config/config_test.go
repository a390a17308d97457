package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "fileshare", cfg.Database.Name)
	assert.Equal(t, StorageBackendGridFS, cfg.Storage.Backend)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  address: ":9090"
  base_url: "https://share.example.com"
storage:
  backend: "s3"
s3:
  bucket_name: "files"
cors:
  allowed_origins:
    - "https://app.example.com"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "https://share.example.com", cfg.Server.BaseURL)
	assert.Equal(t, StorageBackendS3, cfg.Storage.Backend)
	assert.Equal(t, "files", cfg.S3.BucketName)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
}
