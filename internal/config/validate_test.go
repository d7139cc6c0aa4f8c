package config

import (
	"testing"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.Server.Listen = " " },
			wantErr: "server.listen",
		},
		{
			name:    "origin without scheme",
			mutate:  func(c *Config) { c.Server.AllowedOrigins = []string{"dash.example.com"} },
			wantErr: "allowed_origins",
		},
		{
			name:   "valid origin",
			mutate: func(c *Config) { c.Server.AllowedOrigins = []string{"https://dash.example.com:8443"} },
		},
		{
			name:    "username without hash",
			mutate:  func(c *Config) { c.Dashboard.Username = "admin" },
			wantErr: "password_hash is empty",
		},
		{
			name:    "hash without username",
			mutate:  func(c *Config) { c.Dashboard.PasswordHash = "$2a$10$xyz" },
			wantErr: "username is empty",
		},
		{
			name: "plaintext password in hash field",
			mutate: func(c *Config) {
				c.Dashboard.Username = "admin"
				c.Dashboard.PasswordHash = "hunter2"
			},
			wantErr: "bcrypt",
		},
		{
			name:    "negative handshake timeout",
			mutate:  func(c *Config) { c.Session.HandshakeTimeout = -time.Second },
			wantErr: "handshake_timeout",
		},
		{
			name:    "zero default cols",
			mutate:  func(c *Config) { c.Session.DefaultCols = 0 },
			wantErr: "default_cols",
		},
		{
			name:    "rows above pty limit",
			mutate:  func(c *Config) { c.Session.DefaultRows = MaxGeometry + 1 },
			wantErr: "default_rows",
		},
		{
			name:    "zero read buffer",
			mutate:  func(c *Config) { c.Session.ReadBuffer = 0 },
			wantErr: "read_buffer",
		},
		{
			name:    "strict host keys without known_hosts",
			mutate:  func(c *Config) { c.SSH.StrictHostKeyChecking = true },
			wantErr: "known_hosts",
		},
		{
			name:    "empty term",
			mutate:  func(c *Config) { c.SSH.Term = "" },
			wantErr: "ssh.term",
		},
		{
			name:    "telemetry interval too short",
			mutate:  func(c *Config) { c.Telemetry.Interval = 100 * time.Millisecond },
			wantErr: "telemetry.interval",
		},
		{
			name: "disabled telemetry skips its checks",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = false
				c.Telemetry.Interval = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
