package server

import (
	"testing"
	"time"

	"github.com/niels/mock-api-server/pkg/config"
	"github.com/rs/zerolog"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9100
	cfg.Server.ShutdownTimeout = 1500
	cfg.Logging.Requests = true

	opts := OptionsFromConfig(cfg, zerolog.Nop())

	if opts.Addr != "127.0.0.1:9100" {
		t.Errorf("Expected address 127.0.0.1:9100, got %s", opts.Addr)
	}
	if opts.ShutdownTimeout != 1500*time.Millisecond {
		t.Errorf("Expected shutdown timeout 1.5s, got %v", opts.ShutdownTimeout)
	}
	if opts.Retry.MaxRetries != 3 || opts.Retry.InitialDelay != 100*time.Millisecond {
		t.Errorf("Unexpected retry options: %+v", opts.Retry)
	}
	if !opts.LogRequests {
		t.Error("Expected request logging to be enabled")
	}

	disabled := false
	cfg.Retry.Enabled = &disabled
	if opts := OptionsFromConfig(cfg, zerolog.Nop()); opts.Retry.MaxRetries != 0 {
		t.Errorf("Expected no retries when disabled, got %d", opts.Retry.MaxRetries)
	}
}
