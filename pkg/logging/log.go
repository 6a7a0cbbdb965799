package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogFile is used when Setup receives an empty path.
const DefaultLogFile = "sniffctl.log"

var (
	logger   = zerolog.Nop()
	logFile  *os.File
	logMutex sync.Mutex
)

// Setup opens the log file and routes all package-level log calls into it.
// Until Setup is called, logging is discarded.
func Setup(path, level string) error {
	if path == "" {
		path = DefaultLogFile
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger = newLogger(f, lvl)
	return nil
}

// SetOutput routes logging to w. Used by subcommands that log to stderr.
func SetOutput(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = newLogger(w, lvl)
}

// Close flushes and closes the log file, if any.
func Close() error {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = zerolog.Nop()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Raw returns the underlying logger for structured fields.
func Raw() *zerolog.Logger {
	logMutex.Lock()
	defer logMutex.Unlock()
	l := logger
	return &l
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func LogDebug(format string, args ...interface{}) {
	Raw().Debug().Msgf(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	Raw().Info().Msgf(format, args...)
}

func LogError(format string, args ...interface{}) {
	Raw().Error().Msgf(format, args...)
}
