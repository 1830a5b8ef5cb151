package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// CheckDebug reports whether RORICHAT_DEBUG asks for a debug log.
func CheckDebug() bool {
	debug := os.Getenv("RORICHAT_DEBUG")
	return debug == "true" || debug == "1"
}

// NewLogger returns the diagnostic logger. The terminal belongs to the UI,
// so diagnostics go to dir/debug.log when debugging and nowhere otherwise.
func NewLogger(dir string) *log.Logger {
	if !CheckDebug() {
		return log.New(io.Discard, "", 0)
	}

	logPath := filepath.Join(dir, "debug.log")

	// 0600: the log may contain message text
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return log.New(io.Discard, "", 0)
	}

	logger := log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	logger.Printf("=== Debug logging started (RORICHAT_DEBUG=%s) ===", os.Getenv("RORICHAT_DEBUG"))
	return logger
}
