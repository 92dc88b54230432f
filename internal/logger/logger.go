// Package logger provides leveled logging for the pdfchat CLI.
// Messages at or above the configured level are printed to stderr.
// The --verbose flag lowers the level to debug so users can follow
// the ingestion and routing pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

var (
	mu     sync.RWMutex
	level            = domain.LogInfo
	output io.Writer = os.Stderr
)

// severity orders levels from least to most severe.
var severity = map[domain.LogLevel]int{
	domain.LogDebug:    0,
	domain.LogInfo:     1,
	domain.LogWarning:  2,
	domain.LogError:    3,
	domain.LogCritical: 4,
}

// SetLevel sets the minimum level from its name, case-insensitively.
func SetLevel(name string) error {
	l, err := domain.ParseLogLevel(name)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = l
	return nil
}

// Level returns the current minimum level.
func Level() domain.LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose enables or disables verbose logging.
// Verbose forces the debug level; disabling it restores info.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		level = domain.LogDebug
	} else {
		level = domain.LogInfo
	}
}

// IsVerbose returns true if debug messages are printed.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return level == domain.LogDebug
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l domain.LogLevel, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if severity[l] >= severity[level] {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message at debug level.
func Debug(format string, args ...any) {
	logf(domain.LogDebug, "[DEBUG] ", format, args...)
}

// Section prints a section header at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level == domain.LogDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	logf(domain.LogInfo, "[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(domain.LogWarning, "[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(domain.LogError, "[ERROR] ", format, args...)
}

// Critical prints a message that is never filtered.
func Critical(format string, args ...any) {
	logf(domain.LogCritical, "[CRITICAL] ", format, args...)
}
