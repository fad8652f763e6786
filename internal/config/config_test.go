package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Console.RefreshInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.Console.Debounce)
	assert.Equal(t, 3, cfg.Console.DegradedAfter)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.False(t, cfg.LarkClient().Enabled())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  base_url: https://payroll.example.com
  timeout: 5s
console:
  refresh_interval: 0s
server:
  port: 9000
logger:
  format: json
`)
	t.Setenv("PAYROLL_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://payroll.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Console.RefreshInterval)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "PAYROLL_API_URL=http://from-dotenv:8000\nPAYROLL_EXPORT_DIR=/tmp/from-dotenv\n")
	t.Setenv("PAYROLL_API_URL", "http://from-env:8000")
	// the dotenv loader writes straight into the process environment
	t.Cleanup(func() { os.Unsetenv("PAYROLL_EXPORT_DIR") })

	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", cfg.API.BaseURL)
	assert.Equal(t, "/tmp/from-dotenv", cfg.Export.Dir)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }},
		{"unsupported scheme", func(c *Config) { c.API.BaseURL = "ftp://host" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"negative refresh", func(c *Config) { c.Console.RefreshInterval = -time.Second }},
		{"degraded threshold", func(c *Config) { c.Console.DegradedAfter = 0 }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"db path", func(c *Config) { c.Database.Path = "" }},
		{"partial lark", func(c *Config) { c.Lark.AppID = "cli_x" }},
		{"log format", func(c *Config) { c.Logger.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := valid()
	cfg.Lark = LarkConfig{AppID: "cli_x", AppSecret: "secret", ChatID: "oc_1"}
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.LarkClient().Enabled())
}
