// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, log.InfoLevel)
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
}

// Configure replaces the global logger. An empty or unknown level means info.
func Configure(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := newLogger(w, ParseLevel(level))

	mu.Lock()
	logger = l
	mu.Unlock()
	log.SetDefault(l)
	return l
}

// ParseLevel converts a level name to a log level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Get returns the global logger.
func Get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Component returns a child logger tagged with the component name.
func Component(name string) *log.Logger {
	return Get().With("component", name)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
