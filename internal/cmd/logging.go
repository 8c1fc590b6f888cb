package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dotcommander/agenthost/internal/config"
)

// newLogger configures the process logger. LOG_LEVEL wins when set;
// otherwise either debug flag picks between debug and info.
func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToUpper(strings.TrimSpace(cfg.LogLevel)) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		if cfg.Debug || cfg.AFDebug {
			level = slog.LevelDebug
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
