// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/config"
)

// ParseLevel maps LOG_LEVEL onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Setup installs the global logger: human readable console output in
// development, JSON lines elsewhere.
func Setup(cfg config.ServerConfig) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return setup(cfg, out)
}

func setup(cfg config.ServerConfig, out io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.LogLevel))
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "sonicforge-api").Logger()
	return log.Logger
}
