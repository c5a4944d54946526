package retry

import (
	"github.com/niels/mock-api-server/pkg/config"
)

// FromConfig creates retry options from the application configuration.
// The caller decides which errors are retryable.
func FromConfig(cfg *config.Config) Options {
	if !cfg.Retry.IsEnabled() {
		return Options{
			MaxRetries: 0,
		}
	}

	return Options{
		MaxRetries:    cfg.Retry.MaxRetries,
		InitialDelay:  config.Millis(cfg.Retry.InitialDelay),
		MaxDelay:      config.Millis(cfg.Retry.MaxDelay),
		BackoffFactor: cfg.Retry.BackoffFactor,
		JitterFactor:  cfg.Retry.JitterFactor,
	}
}
