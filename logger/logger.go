// Package logger sets up the process-wide slog logger from LOG_LEVEL and LOG_FORMAT.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Setup builds the default logger. Output always goes to stderr.
func Setup() *slog.Logger {
	return SetupWith(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// SetupWith builds the default logger from explicit level and format values
func SetupWith(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L returns the default logger, setting it up on first use
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
