// Package logger provides leveled diagnostic output for policyqa.
// Debug, Info and Section lines appear only in verbose mode (--verbose);
// Warn and Error lines are always written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, "["+tag+"] "+format+"\n", args...)
}

// Debug prints a message in verbose mode.
func Debug(format string, args ...any) {
	write(false, "DEBUG", format, args...)
}

// Info prints an informational message in verbose mode.
func Info(format string, args ...any) {
	write(false, "INFO", format, args...)
}

// Warn prints a warning.
func Warn(format string, args ...any) {
	write(true, "WARN", format, args...)
}

// Error prints an error.
func Error(format string, args ...any) {
	write(true, "ERROR", format, args...)
}

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long an operation took. Use with defer:
//
//	defer logger.Timed(time.Now(), "build chunk store")
func Timed(start time.Time, what string) {
	write(false, "DEBUG", "%s took %s", what, time.Since(start).Round(time.Millisecond))
}
