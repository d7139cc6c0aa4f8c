package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Dashboard.GateEnabled())

	assert.Equal(t, 15*time.Second, cfg.Session.HandshakeTimeout)
	assert.Equal(t, 2*time.Second, cfg.Session.CloseTimeout)
	assert.Equal(t, 80, cfg.Session.DefaultCols)
	assert.Equal(t, 24, cfg.Session.DefaultRows)
	assert.Equal(t, 4096, cfg.Session.ReadBuffer)

	assert.Equal(t, "xterm", cfg.SSH.Term)
	assert.False(t, cfg.SSH.StrictHostKeyChecking)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, "/proc", cfg.Telemetry.ProcRoot)

	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
server:
  listen: "127.0.0.1:9000"
  allowed_origins:
    - https://dash.example.com
session:
  handshake_timeout: 5s
  default_cols: 120
ssh:
  term: xterm-256color
  keepalive_interval: 0s
telemetry:
  interval: 10s
  history: 30
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Session.HandshakeTimeout)
	assert.Equal(t, 120, cfg.Session.DefaultCols)
	assert.Equal(t, 24, cfg.Session.DefaultRows, "unset keys keep their defaults")
	assert.Equal(t, "xterm-256color", cfg.SSH.Term)
	assert.Equal(t, time.Duration(0), cfg.SSH.KeepaliveInterval)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, 30, cfg.Telemetry.History)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVERMON_SERVER_LISTEN", ":7070")
	t.Setenv("SERVERMON_SESSION_HANDSHAKE_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, 3*time.Second, cfg.Session.HandshakeTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFind(t *testing.T) {
	t.Run("explicit path that exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

		found, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		_, err := Find(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("local file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", t.TempDir())
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1\n"), 0o644))

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, ConfigFileName, filepath.Base(found))
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		found, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg := DefaultConfig()
	cfg.Server.Listen = "0.0.0.0:8443"
	cfg.Dashboard.Username = "admin"
	cfg.Dashboard.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	cfg.Session.HandshakeTimeout = 20 * time.Second

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Listen, loaded.Server.Listen)
	assert.Equal(t, cfg.Dashboard, loaded.Dashboard)
	assert.Equal(t, 20*time.Second, loaded.Session.HandshakeTimeout)
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".ssh/known_hosts"), expandHome("~/.ssh/known_hosts"))
	assert.Equal(t, "/etc/ssh/ssh_known_hosts", expandHome("/etc/ssh/ssh_known_hosts"))
	assert.Equal(t, "", expandHome(""))
}
