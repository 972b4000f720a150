package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}

	if cfg.Fetch.ReadBufferSize != 256 {
		t.Errorf("ReadBufferSize = %d, want 256", cfg.Fetch.ReadBufferSize)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.CaptureContentLength {
		t.Error("CaptureContentLength should default to false")
	}
	if cfg.Fetch.Mode != ModeConcurrent {
		t.Errorf("Mode = %q, want %q", cfg.Fetch.Mode, ModeConcurrent)
	}
	if cfg.Server.APIKey != "" {
		t.Error("APIKey should default to empty")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"serial mode", func(c *Config) { c.Fetch.Mode = ModeSerial }, false},
		{"unknown mode", func(c *Config) { c.Fetch.Mode = "parallel" }, true},
		{"zero buffer", func(c *Config) { c.Fetch.ReadBufferSize = 0 }, true},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, true},
		{"zero max concurrent", func(c *Config) { c.Fetch.MaxConcurrent = 0 }, true},
		{"zero max per host", func(c *Config) { c.Fetch.MaxPerHost = 0 }, true},
		{"zero retry attempts", func(c *Config) { c.Fetch.RetryAttempts = 0 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"sqlite with path", func(c *Config) { c.Storage.Driver = DriverSQLite }, false},
		{"sqlite without path", func(c *Config) {
			c.Storage.Driver = DriverSQLite
			c.Storage.SQLitePath = ""
		}, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"negative workers", func(c *Config) { c.Worker.Count = -1 }, true},
		{"no workers", func(c *Config) { c.Worker.Count = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
		want string
	}{
		{"localhost", "localhost", 9848, "localhost:9848"},
		{"all interfaces", "0.0.0.0", 8080, "0.0.0.0:8080"},
		{"empty host", "", 3000, ":3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ServerConfig{Host: tt.host, Port: tt.port}
			if got := cfg.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  host: localhost
  port: 8080
fetch:
  mode: serial
  timeout: 3s
  read_buffer_size: 64
  capture_content_length: true
storage:
  driver: sqlite
  sqlite_path: /tmp/probe.db
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "localhost")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Fetch.Mode != ModeSerial {
		t.Errorf("Mode = %q, want %q", cfg.Fetch.Mode, ModeSerial)
	}
	if cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.ReadBufferSize != 64 {
		t.Errorf("ReadBufferSize = %d, want 64", cfg.Fetch.ReadBufferSize)
	}
	if !cfg.Fetch.CaptureContentLength {
		t.Error("CaptureContentLength should be true")
	}
	if cfg.Storage.SQLitePath != "/tmp/probe.db" {
		t.Errorf("SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/probe.db")
	}
	// Untouched values keep their defaults.
	if cfg.Fetch.MaxConcurrent != 16 {
		t.Errorf("MaxConcurrent = %d, want 16", cfg.Fetch.MaxConcurrent)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("FETCH_READ_BUFFER_SIZE", "1024")
	t.Setenv("API_KEY", "env-api-key")

	yamlContent := `
server:
  api_key: "yaml-api-key"
fetch:
  read_buffer_size: 64
  max_per_host: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Fetch.ReadBufferSize != 1024 {
		t.Errorf("ReadBufferSize = %d, want 1024 (env should override YAML)", cfg.Fetch.ReadBufferSize)
	}
	if cfg.Server.APIKey != "env-api-key" {
		t.Errorf("APIKey = %q, want %q", cfg.Server.APIKey, "env-api-key")
	}
	if cfg.Fetch.MaxPerHost != 2 {
		t.Errorf("MaxPerHost = %d, want 2", cfg.Fetch.MaxPerHost)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("FETCH_MODE", "serial")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("FETCH_CAPTURE_CONTENT_LENGTH", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Fetch.Mode != ModeSerial {
		t.Errorf("Mode = %q, want %q", cfg.Fetch.Mode, ModeSerial)
	}
	if cfg.Fetch.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Fetch.Timeout)
	}
	if !cfg.Fetch.CaptureContentLength {
		t.Error("CaptureContentLength should be true")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load should fail for invalid YAML")
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load should fail for nonexistent file")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("FETCH_MODE", "bogus")

	_, err := Load("")
	if err == nil {
		t.Error("Load should fail validation for an unknown fetch mode")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("FETCH_READ_BUFFER_SIZE", "lots")

	_, err := Load("")
	if err == nil {
		t.Error("Load should fail for a non-numeric buffer size")
	}
}
