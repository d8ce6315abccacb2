package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger    = newConsoleLogger(os.Stderr, zerolog.InfoLevel)
	logFile   *os.File
	mu        sync.Mutex
	isSetup   bool
	debugMode bool
)

func newConsoleLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// SetupLogger routes all log output to the given file at debug level
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	logger = zerolog.New(logFile).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
	debugMode = true

	logger.Info().Msgf("--- sdcard debug log started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetOutput replaces the logger with one writing JSON events to w
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	debugMode = debug
}

// CloseLogger closes the log file and falls back to the console logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Info().Msgf("--- sdcard debug log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		isSetup = false
		debugMode = false
		logger = newConsoleLogger(os.Stderr, zerolog.InfoLevel)
	}
}

// IsDebug reports whether debug events are being recorded
func IsDebug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugMode
}

// Component returns a child logger tagged with the given component name
func Component(name string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger.With().Str("component", name).Logger()
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Info().Msgf(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Debug().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Error().Msgf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Warn().Msgf(format, args...)
}

// LogImageProcessed logs when an image is processed
func LogImageProcessed(path string, success bool, errMsg string) {
	mu.Lock()
	defer mu.Unlock()

	if success {
		logger.Debug().Str("path", path).Msg("PROCESSED")
	} else {
		logger.Warn().Str("path", path).Str("error", errMsg).Msg("FAILED")
	}
}
