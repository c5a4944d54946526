package server

import (
	"github.com/niels/mock-api-server/pkg/config"
	"github.com/niels/mock-api-server/pkg/retry"
	"github.com/rs/zerolog"
)

// OptionsFromConfig creates listener options from the application configuration
func OptionsFromConfig(cfg *config.Config, logger zerolog.Logger) Options {
	return Options{
		Addr:              cfg.Server.Addr(),
		ReadHeaderTimeout: config.Millis(cfg.Server.ReadHeaderTimeout),
		WriteTimeout:      config.Millis(cfg.Server.WriteTimeout),
		IdleTimeout:       config.Millis(cfg.Server.IdleTimeout),
		ShutdownTimeout:   config.Millis(cfg.Server.ShutdownTimeout),
		Retry:             retry.FromConfig(cfg),
		Logger:            logger,
		LogRequests:       cfg.Logging.Requests,
	}
}
