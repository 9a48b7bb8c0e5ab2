// Package logger provides the leveled diagnostic logger used across pacpilot.
// Messages go to stderr so that command output on stdout stays scriptable.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
	level            = new(slog.LevelVar)
	logger *slog.Logger
)

func init() {
	level.Set(slog.LevelWarn)
	logger = newLogger(output)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Init sets the minimum level from its name (debug, info, warn, error).
// Unknown names fall back to warn.
func Init(name string) {
	level.Set(ParseLevel(name))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SetOutput redirects log output (useful for testing). A nil writer
// restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	output = w
	logger = newLogger(w)
}

// Get returns the configured logger.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Debug logs at debug level with optional key/value pairs.
func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

// Info logs at info level with optional key/value pairs.
func Info(msg string, args ...any) { Get().Info(msg, args...) }

// Warn logs at warn level with optional key/value pairs.
func Warn(msg string, args ...any) { Get().Warn(msg, args...) }

// Error logs at error level with optional key/value pairs.
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// Debugf logs a formatted debug message.
func Debugf(format string, args ...any) { Get().Debug(fmt.Sprintf(format, args...)) }

// Infof logs a formatted info message.
func Infof(format string, args ...any) { Get().Info(fmt.Sprintf(format, args...)) }

// Warnf logs a formatted warning.
func Warnf(format string, args ...any) { Get().Warn(fmt.Sprintf(format, args...)) }
