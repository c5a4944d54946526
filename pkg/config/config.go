package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PortEnvVar overrides the listener port when set
const PortEnvVar = "MOCK_API_SERVER_PORT"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Documents DocumentsConfig `yaml:"documents" toml:"documents"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	Output    OutputConfig    `yaml:"output" toml:"output"`
}

// ServerConfig contains settings for the mock HTTP listener
type ServerConfig struct {
	Host              string `yaml:"host" toml:"host"`
	Port              int    `yaml:"port" toml:"port"`
	ReadHeaderTimeout int    `yaml:"read_header_timeout" toml:"read_header_timeout"` // in milliseconds
	WriteTimeout      int    `yaml:"write_timeout" toml:"write_timeout"`             // in milliseconds
	IdleTimeout       int    `yaml:"idle_timeout" toml:"idle_timeout"`               // in milliseconds
	ShutdownTimeout   int    `yaml:"shutdown_timeout" toml:"shutdown_timeout"`       // in milliseconds
}

// DocumentsConfig controls which documents can be served and how they are watched
type DocumentsConfig struct {
	Patterns      []string `yaml:"patterns" toml:"patterns"`
	Watch         *bool    `yaml:"watch" toml:"watch"`
	RestartOnSave bool     `yaml:"restart_on_save" toml:"restart_on_save"`
	Debounce      int      `yaml:"debounce" toml:"debounce"` // in milliseconds
}

// RetryConfig contains settings for retrying a listener bind
type RetryConfig struct {
	Enabled       *bool   `yaml:"enabled" toml:"enabled"`
	MaxRetries    int     `yaml:"max_retries" toml:"max_retries"`
	InitialDelay  int     `yaml:"initial_delay" toml:"initial_delay"` // in milliseconds
	MaxDelay      int     `yaml:"max_delay" toml:"max_delay"`         // in milliseconds
	BackoffFactor float64 `yaml:"backoff_factor" toml:"backoff_factor"`
	JitterFactor  float64 `yaml:"jitter_factor" toml:"jitter_factor"`
}

// LogConfig contains settings for logging
type LogConfig struct {
	LogToFile   bool   `yaml:"log_to_file" toml:"log_to_file"`
	LogFilePath string `yaml:"log_file_path" toml:"log_file_path"`
	MaxSize     int    `yaml:"max_size" toml:"max_size"`       // maximum size in megabytes
	MaxBackups  int    `yaml:"max_backups" toml:"max_backups"` // maximum number of old log files to retain
	MaxAge      int    `yaml:"max_age" toml:"max_age"`         // maximum number of days to retain old log files
	Compress    bool   `yaml:"compress" toml:"compress"`
	Requests    bool   `yaml:"requests" toml:"requests"` // log every request served by the mock server
}

// OutputConfig contains settings for terminal output
type OutputConfig struct {
	Color *bool `yaml:"color" toml:"color"`
}

// LoadDefault returns a configuration with default values
func LoadDefault() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "",
			Port:              9000,
			ReadHeaderTimeout: 2000,
			WriteTimeout:      10000,
			IdleTimeout:       60000,
			ShutdownTimeout:   5000,
		},
		Documents: DocumentsConfig{
			Patterns:      []string{"*.json"},
			Watch:         boolPtr(true),
			RestartOnSave: false,
			Debounce:      100,
		},
		Retry: RetryConfig{
			Enabled:       boolPtr(true),
			MaxRetries:    3,
			InitialDelay:  100,
			MaxDelay:      1000,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		Logging: LogConfig{
			LogToFile:   false,
			LogFilePath: "mock-api-server.log",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      28,
			Compress:    true,
			Requests:    false,
		},
	}
}

// Default returns a configuration with default values
func Default() *Config {
	return LoadDefault()
}

// Load reads configuration from a YAML or TOML file and merges it with
// default values. Files ending in .toml are decoded as TOML, everything
// else as YAML.
func Load(configPath string) (*Config, error) {
	cfg := LoadDefault()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.merge(&fileCfg)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault attempts to load configuration from a file.
// If the file doesn't exist or can't be parsed, it returns default configuration
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = LoadDefault()

		if envErr := cfg.applyEnv(); envErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", envErr)
		}
	}
	return cfg
}

func (cfg *Config) merge(fileCfg *Config) {
	// Server
	if fileCfg.Server.Host != "" {
		cfg.Server.Host = fileCfg.Server.Host
	}
	if fileCfg.Server.Port > 0 {
		cfg.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Server.ReadHeaderTimeout > 0 {
		cfg.Server.ReadHeaderTimeout = fileCfg.Server.ReadHeaderTimeout
	}
	if fileCfg.Server.WriteTimeout > 0 {
		cfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if fileCfg.Server.IdleTimeout > 0 {
		cfg.Server.IdleTimeout = fileCfg.Server.IdleTimeout
	}
	if fileCfg.Server.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = fileCfg.Server.ShutdownTimeout
	}

	// Documents
	if len(fileCfg.Documents.Patterns) > 0 {
		cfg.Documents.Patterns = fileCfg.Documents.Patterns
	}
	if fileCfg.Documents.Watch != nil {
		cfg.Documents.Watch = fileCfg.Documents.Watch
	}
	if fileCfg.Documents.RestartOnSave {
		cfg.Documents.RestartOnSave = true
	}
	if fileCfg.Documents.Debounce > 0 {
		cfg.Documents.Debounce = fileCfg.Documents.Debounce
	}

	// Retry
	if fileCfg.Retry.Enabled != nil {
		cfg.Retry.Enabled = fileCfg.Retry.Enabled
	}
	if fileCfg.Retry.MaxRetries > 0 {
		cfg.Retry.MaxRetries = fileCfg.Retry.MaxRetries
	}
	if fileCfg.Retry.InitialDelay > 0 {
		cfg.Retry.InitialDelay = fileCfg.Retry.InitialDelay
	}
	if fileCfg.Retry.MaxDelay > 0 {
		cfg.Retry.MaxDelay = fileCfg.Retry.MaxDelay
	}
	if fileCfg.Retry.BackoffFactor > 0 {
		cfg.Retry.BackoffFactor = fileCfg.Retry.BackoffFactor
	}
	if fileCfg.Retry.JitterFactor > 0 {
		cfg.Retry.JitterFactor = fileCfg.Retry.JitterFactor
	}

	// Logging
	if fileCfg.Logging.LogToFile {
		cfg.Logging.LogToFile = true
	}
	if fileCfg.Logging.LogFilePath != "" {
		cfg.Logging.LogFilePath = fileCfg.Logging.LogFilePath
	}
	if fileCfg.Logging.MaxSize > 0 {
		cfg.Logging.MaxSize = fileCfg.Logging.MaxSize
	}
	if fileCfg.Logging.MaxBackups > 0 {
		cfg.Logging.MaxBackups = fileCfg.Logging.MaxBackups
	}
	if fileCfg.Logging.MaxAge > 0 {
		cfg.Logging.MaxAge = fileCfg.Logging.MaxAge
	}

	if fileCfg.Logging.Requests {
		cfg.Logging.Requests = true
	}

	// Output
	if fileCfg.Output.Color != nil {
		cfg.Output.Color = fileCfg.Output.Color
	}
}

func (cfg *Config) applyEnv() error {
	value := os.Getenv(PortEnvVar)
	if value == "" {
		return nil
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", PortEnvVar, value, err)
	}
	cfg.Server.Port = port
	return nil
}

// Validate checks values that cannot be corrected by merging with defaults
func (cfg *Config) Validate() error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	if len(cfg.Documents.Patterns) == 0 {
		return fmt.Errorf("at least one document pattern is required")
	}
	return nil
}

// Addr returns the listen address for the mock server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Millis converts a millisecond setting into a duration
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// WatchEnabled reports whether documents should be watched for changes
func (d DocumentsConfig) WatchEnabled() bool {
	return d.Watch == nil || *d.Watch
}

// IsEnabled reports whether listener binds are retried
func (r RetryConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ColorEnabled reports whether colour output was requested. auto is used
// when the configuration does not say.
func (o OutputConfig) ColorEnabled(auto bool) bool {
	if o.Color == nil {
		return auto
	}
	return *o.Color
}

func boolPtr(b bool) *bool {
	return &b
}
