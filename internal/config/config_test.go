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
	t.Setenv("APPO_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.API.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.True(t, cfg.MEPM.UseDefaultTrustStore)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appo.yaml")
	data := `
apm:
  endpoint: http://apm.local:8092/apm/v1
mepm:
  package_path: /data/packages
http:
  timeout: 5s
janitor:
  schedule: "@hourly"
  rule_task_ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("APPO_CONFIG", path)
	t.Setenv("API_PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "7s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://apm.local:8092/apm/v1", cfg.APM.Endpoint)
	assert.Equal(t, "/data/packages", cfg.MEPM.PackagePath)
	assert.Equal(t, "@hourly", cfg.Janitor.Schedule)
	assert.Equal(t, 2*time.Hour, cfg.Janitor.RuleTaskTTL)

	// Окружение важнее файла
	assert.Equal(t, "9090", cfg.API.Port)
	assert.Equal(t, 7*time.Second, cfg.HTTP.Timeout)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("APPO_CONFIG", "")
	t.Setenv("SSL_ENABLED", "maybe")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_TrustStoreRequired(t *testing.T) {
	cfg := Default()
	cfg.MEPM.SSLEnabled = true
	cfg.MEPM.UseDefaultTrustStore = false

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.MEPM.TrustStorePath = "/etc/appo/truststore.p12"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Exporter(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Exporter = "jaeger"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestTaskRegistry(t *testing.T) {
	reg := Default().TaskRegistry(nil)
	assert.Equal(t, []string{"appo.apm", "appo.db", "appo.mepm"}, reg.Types())
}
