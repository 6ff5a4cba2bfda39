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
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Fallback.Enabled)
	assert.Equal(t, 10, cfg.Activity.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "session.json", filepath.Base(cfg.Session.Path))
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeFile(t, "config.yaml", `
api:
  base_url: https://incidents.example.com/api
  timeout: 3s
fallback:
  enabled: false
log:
  level: debug
  format: json
server:
  cors_origins:
    - https://console.example.com
`)
	t.Setenv("INCIDENTCTL_API__TIMEOUT", "7s")
	t.Setenv("INCIDENTCTL_ACTIVITY__LIMIT", "25")
	t.Setenv("INCIDENTCTL_SERVER__METRICS_PORT", "9191")

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://incidents.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.API.Timeout, "environment overrides the file")
	assert.False(t, cfg.Fallback.Enabled)
	assert.Equal(t, 25, cfg.Activity.Limit)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "9191", cfg.Server.MetricsPort)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	envFile := writeFile(t, "test.env", "INCIDENTCTL_SESSION__PATH=/tmp/incident-session.json\nINCIDENTCTL_SERVER__CORS_ORIGINS=http://a.test, http://b.test\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("INCIDENTCTL_SESSION__PATH")
		_ = os.Unsetenv("INCIDENTCTL_SERVER__CORS_ORIGINS")
	})

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/incident-session.json", cfg.Session.Path)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(Options{EnvFile: "does-not-exist.env"})
	require.Error(t, err, "an explicit env file must exist")

	_, err = Load(Options{File: "does-not-exist.yaml"})
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:      APIConfig{BaseURL: "http://localhost:5000/api", Timeout: time.Second},
			Session:  SessionConfig{Path: "/tmp/s.json"},
			Activity: ActivityConfig{Limit: 10},
			Log:      LogConfig{Level: "info", Format: "text"},
			Server:   ServerConfig{Port: "8088"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantMsg: "api.base_url"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantMsg: "api.timeout"},
		{name: "negative rate", mutate: func(c *Config) { c.API.RateLimit = -1 }, wantMsg: "api.rate_limit"},
		{name: "no session path", mutate: func(c *Config) { c.Session.Path = " " }, wantMsg: "session.path"},
		{name: "zero activity", mutate: func(c *Config) { c.Activity.Limit = 0 }, wantMsg: "activity.limit"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantMsg: "log.level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantMsg: "log.format"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	cfg := valid()
	cfg.Log.Level = "loud"
	cfg.Server.Port = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "server.port")
}
