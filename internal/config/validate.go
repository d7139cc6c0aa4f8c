package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
)

// MaxGeometry is the largest column or row count accepted for a pty.
const MaxGeometry = 65535

// MinTelemetryInterval keeps the sampler from hammering /proc.
const MinTelemetryInterval = time.Second

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but servermon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade servermon or lower the version field.")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section of your config.")
	}
	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Run 'servermon config init' to generate the dashboard credentials.")
	}
	if err := validateSession(cfg.Session); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'session' section of your config.")
	}
	if err := validateSSH(cfg.SSH); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'ssh' section of your config.")
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'telemetry' section of your config.")
	}

	return nil
}

func validateServer(s ServerConfig) error {
	if strings.TrimSpace(s.Listen) == "" {
		return fmt.Errorf("server.listen is required")
	}
	if s.ReadHeaderTimeout < 0 {
		return fmt.Errorf("server.read_header_timeout can't be negative")
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout can't be negative")
	}
	for _, origin := range s.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.allowed_origins entry %q is not an origin like https://host:port", origin)
		}
	}
	return nil
}

func validateDashboard(d DashboardConfig) error {
	if d.Username != "" && d.PasswordHash == "" {
		return fmt.Errorf("dashboard.username is set but dashboard.password_hash is empty")
	}
	if d.PasswordHash != "" && d.Username == "" {
		return fmt.Errorf("dashboard.password_hash is set but dashboard.username is empty")
	}
	if d.PasswordHash != "" && !strings.HasPrefix(d.PasswordHash, "$2") {
		return fmt.Errorf("dashboard.password_hash doesn't look like a bcrypt hash")
	}
	return nil
}

func validateSession(s SessionConfig) error {
	if s.HandshakeTimeout < 0 {
		return fmt.Errorf("session.handshake_timeout can't be negative")
	}
	if s.CloseTimeout < 0 {
		return fmt.Errorf("session.close_timeout can't be negative")
	}
	if s.PingInterval < 0 {
		return fmt.Errorf("session.ping_interval can't be negative")
	}
	if s.DefaultCols <= 0 || s.DefaultCols > MaxGeometry {
		return fmt.Errorf("session.default_cols must be between 1 and %d, got %d", MaxGeometry, s.DefaultCols)
	}
	if s.DefaultRows <= 0 || s.DefaultRows > MaxGeometry {
		return fmt.Errorf("session.default_rows must be between 1 and %d, got %d", MaxGeometry, s.DefaultRows)
	}
	if s.ReadBuffer <= 0 {
		return fmt.Errorf("session.read_buffer must be positive")
	}
	if s.MaxMessageBytes <= 0 {
		return fmt.Errorf("session.max_message_bytes must be positive")
	}
	return nil
}

func validateSSH(s SSHConfig) error {
	if strings.TrimSpace(s.Term) == "" {
		return fmt.Errorf("ssh.term is required")
	}
	if s.DialTimeout < 0 {
		return fmt.Errorf("ssh.dial_timeout can't be negative")
	}
	if s.KeepaliveInterval < 0 {
		return fmt.Errorf("ssh.keepalive_interval can't be negative")
	}
	if s.StrictHostKeyChecking && s.KnownHosts == "" {
		return fmt.Errorf("ssh.strict_host_key_checking needs ssh.known_hosts")
	}
	return nil
}

func validateTelemetry(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if t.Interval < MinTelemetryInterval {
		return fmt.Errorf("telemetry.interval must be at least %s, got %s", MinTelemetryInterval, t.Interval)
	}
	if t.History <= 0 {
		return fmt.Errorf("telemetry.history must be positive")
	}
	if t.ProcRoot == "" {
		return fmt.Errorf("telemetry.proc_root is required")
	}
	return nil
}
