package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary directory for test files
	tempDir, err := os.MkdirTemp("", "mock-api-server-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	validConfigPath := filepath.Join(tempDir, "valid-config.yaml")
	validConfigContent := `
server:
  host: 127.0.0.1
  port: 9100
  shutdown_timeout: 1500
documents:
  patterns:
    - "*.json"
    - "*.mock"
  watch: false
  restart_on_save: true
retry:
  enabled: false
  max_retries: 7
logging:
  log_to_file: true
  log_file_path: /tmp/mock.log
  requests: true
output:
  color: false
`
	if err := os.WriteFile(validConfigPath, []byte(validConfigContent), 0644); err != nil {
		t.Fatalf("Failed to write valid config file: %v", err)
	}

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("Failed to load valid config: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9100" {
		t.Errorf("Expected address '127.0.0.1:9100', got '%s'", cfg.Server.Addr())
	}
	if Millis(cfg.Server.ShutdownTimeout) != 1500*time.Millisecond {
		t.Errorf("Expected shutdown timeout 1.5s, got %v", Millis(cfg.Server.ShutdownTimeout))
	}
	// Unset values keep their defaults
	if cfg.Server.IdleTimeout != 60000 {
		t.Errorf("Expected default idle timeout, got %d", cfg.Server.IdleTimeout)
	}

	expectedPatterns := []string{"*.json", "*.mock"}
	if !reflect.DeepEqual(cfg.Documents.Patterns, expectedPatterns) {
		t.Errorf("Expected patterns %v, got %v", expectedPatterns, cfg.Documents.Patterns)
	}
	if cfg.Documents.WatchEnabled() {
		t.Error("Expected watching to be disabled")
	}
	if !cfg.Documents.RestartOnSave {
		t.Error("Expected restart on save to be enabled")
	}
	if cfg.Retry.IsEnabled() {
		t.Error("Expected retry to be disabled")
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("Expected 7 retries, got %d", cfg.Retry.MaxRetries)
	}
	if !cfg.Logging.LogToFile || cfg.Logging.LogFilePath != "/tmp/mock.log" || !cfg.Logging.Requests {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Output.ColorEnabled(true) {
		t.Error("Expected colour to be disabled by config")
	}
}

func TestLoadTOMLConfig(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.toml")
	content := `
[server]
port = 9200

[documents]
patterns = ["*.api.json"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("Expected port 9200, got %d", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Documents.Patterns, []string{"*.api.json"}) {
		t.Errorf("Unexpected patterns: %v", cfg.Documents.Patterns)
	}
	if !cfg.Documents.WatchEnabled() {
		t.Error("Expected watching to stay enabled by default")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()

	invalidPath := filepath.Join(tempDir, "invalid.yaml")
	if err := os.WriteFile(invalidPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(invalidPath); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}

	outOfRange := filepath.Join(tempDir, "port.yaml")
	if err := os.WriteFile(outOfRange, []byte("server:\n  port: 70000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(outOfRange); err == nil {
		t.Error("Expected error for out of range port, got nil")
	}

	if _, err := Load(filepath.Join(tempDir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault("/nonexistent/config.yaml")
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected default port 9000, got %d", cfg.Server.Port)
	}
}

func TestPortEnvOverride(t *testing.T) {
	t.Setenv(PortEnvVar, "9555")

	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Server.Port != 9555 {
		t.Errorf("Expected env port 9555, got %d", cfg.Server.Port)
	}

	t.Setenv(PortEnvVar, "not-a-port")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid env port, got nil")
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg := LoadDefault()

	if cfg.Server.Addr() != ":9000" {
		t.Errorf("Expected default address ':9000', got '%s'", cfg.Server.Addr())
	}
	if !reflect.DeepEqual(cfg.Documents.Patterns, []string{"*.json"}) {
		t.Errorf("Expected default pattern *.json, got %v", cfg.Documents.Patterns)
	}
	if !cfg.Documents.WatchEnabled() || cfg.Documents.RestartOnSave {
		t.Errorf("Unexpected default document config: %+v", cfg.Documents)
	}
	if !cfg.Retry.IsEnabled() || cfg.Retry.MaxRetries != 3 {
		t.Errorf("Unexpected default retry config: %+v", cfg.Retry)
	}
	if cfg.Logging.LogToFile {
		t.Error("Expected file logging to be disabled by default")
	}
	if !cfg.Output.ColorEnabled(true) || cfg.Output.ColorEnabled(false) {
		t.Error("Expected colour to follow auto-detection by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}
