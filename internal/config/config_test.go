package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10, cfg.HTTP.RequestTimeoutSec)
	require.Equal(t, "stock_prices.csv", cfg.Output.Path)
	require.Equal(t, "csv", cfg.Output.Format)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"log_level": "debug",
		"http": {"request_timeout_sec": 4},
		"alphavantage": {"api_key": "from-file"},
		"output": {"format": "json"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 4, cfg.HTTP.RequestTimeoutSec)
	require.Equal(t, "from-file", cfg.AlphaVantage.APIKey)
	require.Equal(t, "json", cfg.Output.Format)
	// untouched sections keep defaults
	require.Equal(t, Default().Yahoo.Endpoint, cfg.Yahoo.Endpoint)
	require.Equal(t, "stock_prices.csv", cfg.Output.Path)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log_level: warn
yahoo:
  endpoint: http://localhost:9999/quote
output:
  path: out/prices.parquet
  format: parquet
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "http://localhost:9999/quote", cfg.Yahoo.Endpoint)
	require.Equal(t, "out/prices.parquet", cfg.Output.Path)
	require.Equal(t, "parquet", cfg.Output.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Equal(t, Default().Output, cfg.Output)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"http":`)

	_, err := Load(path)
	require.ErrorContains(t, err, "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "env-key")
	t.Setenv("REQUEST_TIMEOUT_SEC", "25")
	t.Setenv("OUTPUT_FORMAT", "JSON")
	t.Setenv("LOG_LEVEL", "Debug")

	path := writeFile(t, "config.json", `{"alphavantage": {"api_key": "file-key"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.AlphaVantage.APIKey)
	require.Equal(t, 25, cfg.HTTP.RequestTimeoutSec)
	require.Equal(t, "json", cfg.Output.Format)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvIgnoresBadTimeout(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SEC", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.HTTP.RequestTimeoutSec)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.HTTP.RequestTimeoutSec = 0 }},
		{"unknown format", func(c *Config) { c.Output.Format = "xlsx" }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
		{"bad yahoo endpoint", func(c *Config) { c.Yahoo.Endpoint = "not a url" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), "invalid config")
		})
	}
}
