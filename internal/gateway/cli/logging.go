package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// setupLogging points the global logger at w. stdout is reserved for the
// stdio protocol, so callers pass stderr.
func setupLogging(cfg types.LoggingConfig, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
}

// parseLevel falls back to info for empty or unknown levels
func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
