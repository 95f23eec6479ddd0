package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	appLogger     *log.Logger
	appLoggerOnce sync.Once
	logMu         sync.RWMutex
)

// LogFileName is the log written under the cache dir in server and MCP modes
const LogFileName = "quizgen.log"

// InitLogging opens the log file once. CLI runs never call it, so their
// output stays on the terminal; stdio MCP needs a clean stdout, hence a file.
func InitLogging(config *Config) {
	appLoggerOnce.Do(func() {
		if !config.LogEnabled {
			return
		}

		if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
			return
		}

		logPath := filepath.Join(config.CacheDir, LogFileName)
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return
		}

		SetLogOutput(logFile)
	})
}

// SetLogOutput directs log lines to w; nil disables logging
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()

	if w == nil {
		appLogger = nil
		return
	}
	// Create logger with timestamp and microsecond precision
	appLogger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

// logf logs a formatted message if logging is enabled
func logf(level, format string, args ...any) {
	logMu.RLock()
	defer logMu.RUnlock()

	if appLogger == nil {
		return
	}
	appLogger.Printf("[%s] "+format, append([]any{level}, args...)...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	logf("INFO", format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	logf("ERROR", format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...any) {
	logf("DEBUG", format, args...)
}
