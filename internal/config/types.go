package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete servermon.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	SSH       SSHConfig       `yaml:"ssh" mapstructure:"ssh"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Listen is the address the dashboard binds to.
	Listen string `yaml:"listen" mapstructure:"listen"`

	// AllowedOrigins lists browser origins permitted to open terminal sessions.
	// Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// StaticDir, when set, is served at / (the dashboard front end).
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// DashboardConfig is the access gate in front of the whole application.
type DashboardConfig struct {
	Username string `yaml:"username" mapstructure:"username"`

	// PasswordHash is a bcrypt hash. Generate one with 'servermon config init'.
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash"`
}

// GateEnabled reports whether HTTP Basic protection is configured.
func (d DashboardConfig) GateEnabled() bool {
	return d.Username != "" && d.PasswordHash != ""
}

// SessionConfig tunes the browser terminal sessions.
type SessionConfig struct {
	// HandshakeTimeout bounds the time from connection accept to a streaming shell.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`

	// CloseTimeout bounds the WebSocket close handshake during teardown.
	CloseTimeout time.Duration `yaml:"close_timeout" mapstructure:"close_timeout"`

	DefaultCols int `yaml:"default_cols" mapstructure:"default_cols"`
	DefaultRows int `yaml:"default_rows" mapstructure:"default_rows"`

	// ReadBuffer is the chunk size for reads from the remote pty.
	ReadBuffer int `yaml:"read_buffer" mapstructure:"read_buffer"`

	// MaxMessageBytes caps a single inbound WebSocket message.
	MaxMessageBytes int64 `yaml:"max_message_bytes" mapstructure:"max_message_bytes"`

	// PingInterval is the WebSocket keepalive period. Zero disables pings.
	PingInterval time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
}

// SSHConfig controls how remote shells are opened.
type SSHConfig struct {
	// Term is the TERM value requested for the remote pty.
	Term string `yaml:"term" mapstructure:"term"`

	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// KnownHosts is a known_hosts file used to verify host keys.
	KnownHosts string `yaml:"known_hosts" mapstructure:"known_hosts"`

	// StrictHostKeyChecking rejects hosts whose key is not in KnownHosts.
	// When false, unknown hosts are accepted but changed keys still fail.
	StrictHostKeyChecking bool `yaml:"strict_host_key_checking" mapstructure:"strict_host_key_checking"`

	// ConfigFile is an OpenSSH client config used to resolve host aliases.
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`

	// KeepaliveInterval is how often the upstream is probed. Zero disables it.
	KeepaliveInterval time.Duration `yaml:"keepalive_interval" mapstructure:"keepalive_interval"`
}

// TelemetryConfig controls the local resource sampler.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// History is the number of samples kept in memory.
	History int `yaml:"history" mapstructure:"history"`

	ProcRoot string `yaml:"proc_root" mapstructure:"proc_root"`
	DiskPath string `yaml:"disk_path" mapstructure:"disk_path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Server: ServerConfig{
			Listen:            ":8080",
			AllowedOrigins:    []string{},
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Session: SessionConfig{
			HandshakeTimeout: 15 * time.Second,
			CloseTimeout:     2 * time.Second,
			DefaultCols:      80,
			DefaultRows:      24,
			ReadBuffer:       4096,
			MaxMessageBytes:  1 << 20,
			PingInterval:     30 * time.Second,
		},
		SSH: SSHConfig{
			Term:              "xterm",
			DialTimeout:       10 * time.Second,
			KeepaliveInterval: 30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
			History:  120,
			ProcRoot: "/proc",
			DiskPath: "/",
		},
	}
}
