package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// Command describes the external programs backing one subsystem.
type Command struct {
	// Begin is the argv started when the subsystem's phase begins.
	Begin []string `yaml:"begin,omitempty"`
	// End is the argv started when the phase ends. When empty the process
	// started by Begin is killed instead.
	End []string `yaml:"end,omitempty"`
}

// IsZero reports whether no command is configured.
func (c Command) IsZero() bool {
	return len(c.Begin) == 0 && len(c.End) == 0
}

// Config holds settings shared by the alternator binaries.
type Config struct {
	// ServerAddress is the gRPC control server address.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is the optional listen address of the Prometheus endpoint.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// Timeout bounds RPC calls and the worker drain on shutdown.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level,omitempty"`
	// BurstDuration is the initial burst window.
	BurstDuration time.Duration `yaml:"burst_duration"`
	// ScanDuration is the initial scan window.
	ScanDuration time.Duration `yaml:"scan_duration"`
	// Burst configures the transmit-burst subsystem.
	Burst Command `yaml:"burst,omitempty"`
	// Scan configures the passive-scan subsystem.
	Scan Command `yaml:"scan,omitempty"`
	// ReapStale kills leftover subsystem processes on server start.
	ReapStale bool `yaml:"reap_stale,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alternator-settings.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errBeginCommandRequired is returned when a subsystem has an end command but no begin command.
	errBeginCommandRequired = errors.New("begin command must be provided")
	// errInvalidLogLevel is returned when the log level name is unknown.
	errInvalidLogLevel = errors.New("invalid log level")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics socket: %w", err)
		}
	}

	if settings.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
			return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.LogLevel)
		}
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	durations := settings.Durations()
	if err := durations.Validate(); err != nil {
		return fmt.Errorf("invalid durations: %w", err)
	}

	durations = durations.WithDefaults()
	settings.BurstDuration = durations.BurstDuration
	settings.ScanDuration = durations.ScanDuration

	if len(settings.Burst.Begin) == 0 && len(settings.Burst.End) > 0 {
		return fmt.Errorf("burst: %w", errBeginCommandRequired)
	}

	if len(settings.Scan.Begin) == 0 && len(settings.Scan.End) > 0 {
		return fmt.Errorf("scan: %w", errBeginCommandRequired)
	}

	return nil
}

// Durations returns the phase durations as a domain config.
func (c *Config) Durations() domain.Config {
	return domain.Config{
		BurstDuration: c.BurstDuration,
		ScanDuration:  c.ScanDuration,
	}
}
