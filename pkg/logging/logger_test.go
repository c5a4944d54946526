package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niels/mock-api-server/pkg/config"
)

func decodeLine(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("Failed to parse log output as JSON: %v (%s)", err, output)
	}
	return logEntry
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true, &buf)

	levels := []struct {
		log   func(string)
		level string
	}{
		{func(m string) { logger.Debug().Msg(m) }, "debug"},
		{func(m string) { logger.Info().Msg(m) }, "info"},
		{func(m string) { logger.Warn().Msg(m) }, "warn"},
		{func(m string) { logger.Error().Msg(m) }, "error"},
	}

	for _, l := range levels {
		l.log(l.level + " message")
		output := buf.String()
		buf.Reset()

		if !strings.Contains(output, l.level+" message") {
			t.Errorf("Log should contain '%s message', got: %s", l.level, output)
		}
		if !strings.Contains(output, `"level":"`+l.level+`"`) {
			t.Errorf("Log should have %s level, got: %s", l.level, output)
		}
	}
}

func TestDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, &buf)

	logger.Debug().Msg("debug message")
	if strings.Contains(buf.String(), "debug message") {
		t.Errorf("Debug log should not be visible when debug is disabled, got: %s", buf.String())
	}

	logger.Info().Msg("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("Info log should be visible when debug is disabled, got: %s", buf.String())
	}
}

func TestHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewLogger(true, &buf))
	defer SetGlobalLogger(NewLogger(false, nil))

	Debug("debug helper message")
	Info("info helper message")
	Warn("warn helper message")
	Error("error helper message")

	output := buf.String()
	for _, msg := range []string{"debug helper message", "info helper message", "warn helper message", "error helper message"} {
		if !strings.Contains(output, msg) {
			t.Errorf("Expected output to contain %q, got: %s", msg, output)
		}
	}
}

func TestStructuredHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewLogger(true, &buf))
	defer SetGlobalLogger(NewLogger(false, nil))

	InfoWith("server started", map[string]interface{}{
		"addr":   ":9000",
		"routes": 2,
		"error":  errors.New("boom"),
	})

	logEntry := decodeLine(t, buf.String())
	if logEntry["addr"] != ":9000" {
		t.Errorf("Expected addr field, got: %v", logEntry["addr"])
	}
	if routes, ok := logEntry["routes"].(float64); !ok || int(routes) != 2 {
		t.Errorf("Expected routes field to be 2, got: %v", logEntry["routes"])
	}
	if logEntry["error"] != "boom" {
		t.Errorf("Expected error to be rendered as its message, got: %v", logEntry["error"])
	}
	if logEntry["message"] != "server started" {
		t.Errorf("Unexpected message: %v", logEntry["message"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewLogger(true, &buf))
	defer SetGlobalLogger(NewLogger(false, nil))

	logger := WithComponent("server")
	logger.Info().Msg("component message")

	logEntry := decodeLine(t, buf.String())
	if logEntry["component"] != "server" {
		t.Errorf("Expected component field to be 'server', got: %v", logEntry["component"])
	}
}

func TestTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(true, &buf)
	logger.Info().Msg("timestamp test")

	logEntry := decodeLine(t, buf.String())
	timestamp, ok := logEntry["time"].(string)
	if !ok {
		t.Fatalf("Log entry should contain a timestamp field")
	}
	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("Timestamp should be in RFC3339 format, got: %s", timestamp)
	}
}

func TestInitGlobalLoggerToFile(t *testing.T) {
	defer SetGlobalLogger(NewLogger(false, nil))

	logPath := filepath.Join(t.TempDir(), "mock.log")
	cfg := config.LoadDefault()
	cfg.Logging.LogToFile = true
	cfg.Logging.LogFilePath = logPath

	InitGlobalLogger(false, cfg)
	Info("written to file")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Expected log file to contain message, got: %s", data)
	}
}
