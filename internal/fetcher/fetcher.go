package fetcher

import (
	"log/slog"

	"github.com/iconidentify/imgsniff/internal/config"
)

// New returns the fetcher selected by cfg.
func New(cfg config.FetchConfig, opener Opener, logger *slog.Logger) Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == config.ModeSerial || cfg.MaxConcurrent == 1 {
		return NewSerial(opener, cfg, logger)
	}
	return NewConcurrent(opener, cfg, logger)
}
