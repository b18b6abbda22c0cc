package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.BaseEndpoint)
	require.Equal(t, StoreSQLite, cfg.StoreMode)
	require.Equal(t, classrecord.DefaultExpiryBuffer, cfg.ExpiryBuffer)
	require.Zero(t, cfg.ScanSettleDelay)
	require.Equal(t, classrecord.DefaultEndpoints(), cfg.Endpoints())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BASE_ENDPOINT", "https://records.example.edu")
	t.Setenv("ENDPOINT_LOGIN", "/v2/login")
	t.Setenv("STORE_MODE", "memory")
	t.Setenv("SCAN_SETTLE_DELAY", "750ms")
	t.Setenv("EXPIRY_BUFFER", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://records.example.edu", cfg.BaseEndpoint)
	require.Equal(t, "/v2/login", cfg.Endpoints().Login)
	require.Equal(t, classrecord.DefaultEndpoints().Courses, cfg.Endpoints().Courses)
	require.Equal(t, StoreMemory, cfg.StoreMode)
	require.Equal(t, 750*time.Millisecond, cfg.ScanSettleDelay)
	require.Equal(t, 30*time.Second, cfg.ExpiryBuffer)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir+"/.env", "BASE_ENDPOINT=http://from-dotenv:9000\nLOG_LEVEL=debug\n")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://from-dotenv:9000", cfg.BaseEndpoint)
	require.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel, "env overrides .env")
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			APIKey:           "k",
			APISecret:        "s",
			BaseEndpoint:     "http://localhost:8080",
			StoreMode:        StoreSQLite,
			StoreFile:        "creds.db",
			DeviceSecretFile: "device.secret",
			HTTPTimeout:      time.Second,
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.APISecret = "" }},
		{"relative base", func(c *Config) { c.BaseEndpoint = "localhost:8080/api" }},
		{"unknown store mode", func(c *Config) { c.StoreMode = "keychain" }},
		{"sqlite without file", func(c *Config) { c.StoreFile = "" }},
		{"missing device secret", func(c *Config) { c.DeviceSecretFile = "" }},
		{"negative settle delay", func(c *Config) { c.ScanSettleDelay = -time.Second }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
