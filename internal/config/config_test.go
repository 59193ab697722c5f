package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "depthbook-test", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit())
	assert.Equal(t, ":9091", cfg.GRPC.Addr)
	assert.Equal(t, "https://testnet.binance.vision", cfg.Exchange.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.ExchangeTimeout())
	assert.Equal(t, 5000, cfg.Exchange.OrderBookLimit)
	assert.Equal(t, 2*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.App.LogLevel)
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load(filepath.Join("testdata", "postgres_no_dsn.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.NoError(t, cfg.Validate())

	cfg.Cache.Backend = "memcached"
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
}
