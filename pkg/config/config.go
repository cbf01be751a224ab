// Package config provides YAML-based configuration loading for the backup
// client. The core consumes its outputs as already-validated values: a parsed
// Endpoint, a list of backup paths, timeouts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name used in logs
	AppName string `mapstructure:"app_name"`

	// DataDir base directory for the local manifest and other state
	DataDir string `mapstructure:"data_dir"`

	// UserID pins the 32-bit user identity; 0 means generate a random one
	UserID uint32 `mapstructure:"user_id"`

	// Server is the endpoint as host:port. ServerInfoFile, when set, is read
	// instead (single line host:port, the classic server.info layout).
	Server         string `mapstructure:"server"`
	ServerInfoFile string `mapstructure:"server_info_file"`

	// BackupListFile holds newline-delimited paths to back up
	BackupListFile string `mapstructure:"backup_list_file"`

	// Transport selects the dialer: tcp or quic
	Transport string `mapstructure:"transport"`
	// QUICInsecure skips server certificate verification on quic
	QUICInsecure bool `mapstructure:"quic_insecure"`

	// Net holds per-call I/O timeouts
	Net NetConfig `mapstructure:"net"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Metrics controls the prometheus endpoint in daemon mode
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Schedule is a cron expression for periodic backups in daemon mode
	Schedule string `mapstructure:"schedule"`
}

// NetConfig defines transport timeouts in milliseconds. Zero disables the
// corresponding deadline.
type NetConfig struct {
	DialTimeoutMS  int `mapstructure:"dial_timeout_ms"`
	ReadTimeoutMS  int `mapstructure:"read_timeout_ms"`
	WriteTimeoutMS int `mapstructure:"write_timeout_ms"`
}

// Timeouts converts the millisecond settings to transport.Timeouts.
func (n NetConfig) Timeouts() transport.Timeouts {
	return transport.Timeouts{
		Dial:  time.Duration(n.DialTimeoutMS) * time.Millisecond,
		Read:  time.Duration(n.ReadTimeoutMS) * time.Millisecond,
		Write: time.Duration(n.WriteTimeoutMS) * time.Millisecond,
	}
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig controls the prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName:        "backup-client",
		DataDir:        "./data",
		ServerInfoFile: "server.info",
		BackupListFile: "backup.info",
		Transport:      "tcp",
		Net: NetConfig{
			DialTimeoutMS:  5000,
			ReadTimeoutMS:  30000,
			WriteTimeoutMS: 30000,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/backup-client.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Metrics:  MetricsConfig{Enabled: false, Listen: ":9090"},
		Schedule: "",
	}
}

// Load reads configuration from the provided path (if non-empty), otherwise
// it searches common locations and supports environment overrides with the
// prefix BACKUP; `.` and `-` map to `_`. Example: BACKUP_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BACKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("user_id", cfg.UserID)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("server_info_file", cfg.ServerInfoFile)
	v.SetDefault("backup_list_file", cfg.BackupListFile)
	v.SetDefault("transport", cfg.Transport)
	v.SetDefault("quic_insecure", cfg.QUICInsecure)
	v.SetDefault("net.dial_timeout_ms", cfg.Net.DialTimeoutMS)
	v.SetDefault("net.read_timeout_ms", cfg.Net.ReadTimeoutMS)
	v.SetDefault("net.write_timeout_ms", cfg.Net.WriteTimeoutMS)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)
	v.SetDefault("schedule", cfg.Schedule)

	if path == "" {
		if envPath := os.Getenv("BACKUP_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("backup-client")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".backup-client"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	switch c.Transport {
	case "", "tcp":
		c.Transport = "tcp"
	case "quic":
	default:
		return fmt.Errorf("invalid transport: %q", c.Transport)
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		return errors.New("metrics.listen required when metrics.enabled")
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
