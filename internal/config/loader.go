package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "servermon.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/servermon"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides (SERVERMON_SERVER_LISTEN).
	EnvPrefix = "SERVERMON"
)

// Load reads config from the specified path. An empty path loads only
// defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'servermon config init' to create one, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. servermon.yaml in the current directory
// 3. ~/.config/servermon/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/servermon/config.yaml, or "" when the
// home directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault finds and loads the config, falling back to defaults (with
// environment overrides) when no file exists. It returns the path that was
// used, which is empty for defaults.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key with viper. AutomaticEnv only resolves
// keys viper already knows about, so all keys are registered even when the
// struct default would be enough.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.static_dir", d.Server.StaticDir)

	v.SetDefault("dashboard.username", d.Dashboard.Username)
	v.SetDefault("dashboard.password_hash", d.Dashboard.PasswordHash)

	v.SetDefault("session.handshake_timeout", d.Session.HandshakeTimeout)
	v.SetDefault("session.close_timeout", d.Session.CloseTimeout)
	v.SetDefault("session.default_cols", d.Session.DefaultCols)
	v.SetDefault("session.default_rows", d.Session.DefaultRows)
	v.SetDefault("session.read_buffer", d.Session.ReadBuffer)
	v.SetDefault("session.max_message_bytes", d.Session.MaxMessageBytes)
	v.SetDefault("session.ping_interval", d.Session.PingInterval)

	v.SetDefault("ssh.term", d.SSH.Term)
	v.SetDefault("ssh.dial_timeout", d.SSH.DialTimeout)
	v.SetDefault("ssh.known_hosts", d.SSH.KnownHosts)
	v.SetDefault("ssh.strict_host_key_checking", d.SSH.StrictHostKeyChecking)
	v.SetDefault("ssh.config_file", d.SSH.ConfigFile)
	v.SetDefault("ssh.keepalive_interval", d.SSH.KeepaliveInterval)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.interval", d.Telemetry.Interval)
	v.SetDefault("telemetry.history", d.Telemetry.History)
	v.SetDefault("telemetry.proc_root", d.Telemetry.ProcRoot)
	v.SetDefault("telemetry.disk_path", d.Telemetry.DiskPath)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "your environment overrides"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	cfg.SSH.KnownHosts = expandHome(cfg.SSH.KnownHosts)
	cfg.SSH.ConfigFile = expandHome(cfg.SSH.ConfigFile)
	cfg.Server.StaticDir = expandHome(cfg.Server.StaticDir)

	return cfg, nil
}
