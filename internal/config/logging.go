package config

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog handler based on log level.
// This should be called once at application startup to configure logging
// for the entire application.
func SetupLogging(logLevel string) {
	var level slog.Level

	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Use TextHandler for better readability instead of JSON
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
