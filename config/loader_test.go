package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/meshforge/gen3d/providers/hunyuan"
)

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Queue.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Queue.BackoffBase)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, "storage", cfg.Storage.LocalDir)
	assert.Equal(t, hunyuan.ModeRapid, cfg.Providers.Hunyuan.Mode)
	assert.False(t, cfg.Providers.Hunyuan.Configured())
	assert.False(t, cfg.Providers.Meshy.Configured())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 9000
redis:
  addr: redis:6379
providers:
  default: meshy
  meshy:
    api_key: test-key
  hunyuan:
    secret_id: sid
    secret_key: skey
    mode: pro
storage:
  s3:
    bucket: assets
    access_key_id: ak
    secret_access_key: sk
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "meshy", cfg.Providers.Default)
	assert.True(t, cfg.Providers.Meshy.Configured())
	assert.True(t, cfg.Providers.Hunyuan.Configured())
	assert.Equal(t, hunyuan.ModePro, cfg.Providers.Hunyuan.Mode)
	assert.True(t, cfg.Storage.S3.Configured())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o600))

	t.Setenv("MESHFORGE_SERVER_HTTP_PORT", "9100")
	t.Setenv("MESHFORGE_PROVIDERS_MESHY_API_KEY", "env-key")
	t.Setenv("MESHFORGE_QUEUE_BACKOFF_BASE", "10s")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort)
	assert.Equal(t, "env-key", cfg.Providers.Meshy.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Queue.BackoffBase)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Server.HTTPPort = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Providers.Default = "tripo"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider must be hunyuan or meshy")

	cfg = DefaultConfig()
	cfg.Worker.Concurrency = 0
	require.Error(t, cfg.Validate())
}

func TestLoad_ValidatorRuns(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	assert.NoError(t, err)
}
