package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LogError logs an error message to stderr
func LogError(format string, args ...interface{}) {
	slog.Error(fmt.Sprintf(format, args...))
}

// Setup installs the default slog handler at the given level (debug, info, warn, error).
func Setup(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
