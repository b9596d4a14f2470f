package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger creates a text logger on w, at debug level when verbose is set
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: func() slog.Level {
			if verbose {
				return slog.LevelDebug
			}
			return slog.LevelInfo
		}(),
	}))
}

// DiscardLogger returns a logger that drops every record
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// VerboseLogger provides consistent verbose logging across packages
type VerboseLogger struct {
	verbose bool
	out     io.Writer
}

// NewVerboseLogger creates a new verbose logger writing to stderr
func NewVerboseLogger(verbose bool) *VerboseLogger {
	return &VerboseLogger{verbose: verbose, out: os.Stderr}
}

// Logf logs a formatted message if verbose mode is enabled
func (v *VerboseLogger) Logf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, format, args...)
	}
}

// Infof always prints a progress message, prefixed like the step markers
func (v *VerboseLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(v.out, "[T] "+format+"\n", args...)
}

// IsVerbose returns whether verbose mode is enabled
func (v *VerboseLogger) IsVerbose() bool {
	return v.verbose
}

// SetOutput redirects the logger, mainly for tests
func (v *VerboseLogger) SetOutput(w io.Writer) {
	v.out = w
}
