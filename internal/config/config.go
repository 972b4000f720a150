package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Fetch modes.
const (
	ModeConcurrent = "concurrent"
	ModeSerial     = "serial"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Storage StorageConfig `yaml:"storage"`
	Worker  WorkerConfig  `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

// FetchConfig holds image probing configuration.
type FetchConfig struct {
	Mode                 string        `yaml:"mode" envconfig:"FETCH_MODE"`
	Timeout              time.Duration `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
	ReadBufferSize       int           `yaml:"read_buffer_size" envconfig:"FETCH_READ_BUFFER_SIZE"`
	CaptureContentLength bool          `yaml:"capture_content_length" envconfig:"FETCH_CAPTURE_CONTENT_LENGTH"`
	MaxConcurrent        int           `yaml:"max_concurrent" envconfig:"FETCH_MAX_CONCURRENT"`
	MaxPerHost           int           `yaml:"max_per_host" envconfig:"FETCH_MAX_PER_HOST"`
	UserAgent            string        `yaml:"user_agent" envconfig:"FETCH_USER_AGENT"`
	RetryAttempts        int           `yaml:"retry_attempts" envconfig:"FETCH_RETRY_ATTEMPTS"`
	RetryDelay           time.Duration `yaml:"retry_delay" envconfig:"FETCH_RETRY_DELAY"`
	MaxRetryDelay        time.Duration `yaml:"max_retry_delay" envconfig:"FETCH_MAX_RETRY_DELAY"`
}

// StorageConfig holds probe report storage configuration.
type StorageConfig struct {
	Driver     string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"STORAGE_SQLITE_PATH"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	Count        int           `yaml:"count" envconfig:"WORKER_COUNT"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"WORKER_MAX_RETRIES"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         9848,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Fetch: DefaultFetchConfig(),
		Storage: StorageConfig{
			Driver:     DriverMemory,
			SQLitePath: "/data/imgsniff.db",
		},
		Worker: WorkerConfig{
			Count:        2,
			PollInterval: time.Second,
			MaxRetries:   2,
		},
	}
}

// DefaultFetchConfig returns the fetch defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Mode:           ModeConcurrent,
		Timeout:        10 * time.Second,
		ReadBufferSize: 256,
		MaxConcurrent:  16,
		MaxPerHost:     6,
		UserAgent:      "imgsniff/1.0",
		RetryAttempts:  1,
		RetryDelay:     500 * time.Millisecond,
		MaxRetryDelay:  5 * time.Second,
	}
}

// Load reads configuration from file and environment variables.
// Defaults are overridden by the file, and the file by the environment.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port)
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not one of memory, sqlite", c.Storage.Driver)
	}
	if c.Worker.Count < 0 {
		return fmt.Errorf("WORKER_COUNT must not be negative")
	}
	return nil
}

// Validate checks the fetch settings.
func (c *FetchConfig) Validate() error {
	if c.Mode != ModeConcurrent && c.Mode != ModeSerial {
		return fmt.Errorf("FETCH_MODE %q is not one of concurrent, serial", c.Mode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("FETCH_READ_BUFFER_SIZE must be positive")
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("FETCH_MAX_CONCURRENT must be positive")
	}
	if c.MaxPerHost <= 0 {
		return fmt.Errorf("FETCH_MAX_PER_HOST must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("FETCH_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
