package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/retry"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ecomarket-gateway", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Log.SlowRequestThreshold)
	assert.Equal(t, "./logs/gateway.log", cfg.Log.File.Path)
	assert.Equal(t, "http://localhost:3000/api", cfg.Services.EcoMarket.BaseURL)
	assert.Equal(t, "ecomarket", cfg.Services.EcoMarket.Name)

	require.NoError(t, cfg.Validate(), "defaults must be a valid configuration")
}

func TestLoad_RetryDefaultsMatchEngine(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, retry.DefaultPolicy(), cfg.Client.Retry.Policy())
}

func TestLoad_ClientDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, DefaultClientCircuitMaxFailures, cfg.Client.CircuitBreaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Client.CircuitBreaker.Timeout)
	assert.InDelta(t, DefaultClientRateLimitRPS, cfg.Client.RateLimit.RequestsPerSecond, 0)
	assert.Equal(t, DefaultClientRateLimitBurst, cfg.Client.RateLimit.Burst)
	assert.Equal(t, 90*time.Second, cfg.Client.Transport.IdleConnTimeout)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "9090")
	t.Setenv("APP_LOG__LEVEL", "warn")
	t.Setenv("APP_CLIENT__RETRY__MAX_ATTEMPTS", "5")
	t.Setenv("APP_CLIENT__RETRY__JITTER_MAX", "250ms")
	t.Setenv("APP_SERVICES__ECOMARKET__BASE_URL", "https://ecomarket.example/api")
	t.Setenv("APP_TELEMETRY__ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Retry.JitterMax)
	assert.Equal(t, "https://ecomarket.example/api", cfg.Services.EcoMarket.BaseURL)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_ProfileFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "base.yaml"), []byte(`
client:
  retry:
    max_attempts: 4
    initial_interval: 200ms
log:
  level: debug
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "qa.yaml"), []byte(`
client:
  retry:
    max_attempts: 2
`), 0o600))
	t.Chdir(dir)

	cfg, err := Load("qa")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Client.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Client.Retry.InitialInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "base.yaml"), []byte("client: [unclosed"), 0o600))
	t.Chdir(dir)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "ecomarket-gateway", cfg.App.Name)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "client.retry.max_attempts", envKey("APP_CLIENT__RETRY__MAX_ATTEMPTS"))
	assert.Equal(t, "log.level", envKey("APP_LOG__LEVEL"))
}
