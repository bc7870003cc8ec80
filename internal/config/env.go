package config

import (
	"log/slog"
	"os"
	"strings"
)

// EnvOrDefault returns the value of key, or def when it is unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SetupLogger installs a text slog handler on stderr at the level named by
// SPARQL_LOG_LEVEL, or by override when it is non-empty.
func SetupLogger(override string) {
	logLevel := strings.ToUpper(override)
	if logLevel == "" {
		logLevel = strings.ToUpper(os.Getenv("SPARQL_LOG_LEVEL"))
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
