package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Tables.DefaultCapacity)
	assert.Equal(t, 30, cfg.Schedule.PreOpenMinutes)
	assert.Equal(t, 15, cfg.Schedule.PreCloseMinutes)
	assert.Equal(t, 45*time.Second, cfg.Realtime.PollLease)
	assert.Equal(t, time.Minute, cfg.Watch.Interval)
	assert.Equal(t, 2, cfg.WorkerPool.Size)
	assert.False(t, cfg.Push.Enabled())
	assert.Empty(t, cfg.Notes)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  dsn: \"postgres://localhost/menu\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, 30, cfg.Schedule.PreOpenMinutes)
	assert.Equal(t, 15, cfg.Schedule.PreCloseMinutes)
	assert.Equal(t, 4, cfg.Tables.DefaultCapacity)
	assert.Equal(t, 32, cfg.Realtime.SendBuffer)
	assert.Equal(t, 10*time.Second, cfg.Realtime.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Realtime.PongWait)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, []string{"worker_pool.size is not set or invalid; defaulting to 1"}, cfg.Notes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("VAPID_PUBLIC_KEY", "public")
	t.Setenv("VAPID_PRIVATE_KEY", "private")

	cfg, err := Load(writeConfig(t, `
server:
  port: 8080
  allowed_origins: ["http://localhost:5173"]
watch:
  enabled: true
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Watch.Enabled)
	assert.True(t, cfg.Push.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") }},
		{name: "malformed yaml", path: func(t *testing.T) string { return writeConfig(t, "server: [port") }},
		{name: "bad env value", path: func(t *testing.T) string {
			t.Setenv("RATE_LIMIT_BURST", "lots")
			return writeConfig(t, "server:\n  port: 8080\n")
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			assert.Error(t, err)
		})
	}
}
