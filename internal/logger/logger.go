// Package logger provides leveled logging for sercha-sync.
// When verbose mode is enabled via the --verbose flag, debug and info
// messages are written to stderr to help users follow a sync run.
// Errors are always written.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fields are structured key/value pairs attached to a log line.
type Fields map[string]any

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	base              = build()
)

func build() zerolog.Logger {
	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer log lines go to.
// Lines are written as JSON; use ConsoleOutput for human-readable lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// ConsoleOutput wraps w in a human-readable console writer.
func ConsoleOutput(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
}

// Debug logs a debug message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(zerolog.DebugLevel, nil, format, args)
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(zerolog.InfoLevel, nil, format, args)
}

// Warn logs a warning if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit(zerolog.WarnLevel, nil, format, args)
}

// Error logs an error. Errors are written regardless of verbose mode.
func Error(format string, args ...any) {
	emit(zerolog.ErrorLevel, nil, format, args)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	emit(zerolog.InfoLevel, nil, "=== %s ===", []any{name})
}

// Entry is a logger carrying structured fields.
type Entry struct {
	fields Fields
}

// With returns an Entry that attaches fields to every line.
func With(fields Fields) *Entry {
	return (&Entry{}).With(fields)
}

// With returns a copy of e with extra fields.
func (e *Entry) With(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{fields: merged}
}

// Debug logs a debug message with the entry's fields.
func (e *Entry) Debug(format string, args ...any) {
	emit(zerolog.DebugLevel, e.fields, format, args)
}

// Info logs an informational message with the entry's fields.
func (e *Entry) Info(format string, args ...any) {
	emit(zerolog.InfoLevel, e.fields, format, args)
}

// Warn logs a warning with the entry's fields.
func (e *Entry) Warn(format string, args ...any) {
	emit(zerolog.WarnLevel, e.fields, format, args)
}

// Error logs an error with the entry's fields.
func (e *Entry) Error(format string, args ...any) {
	emit(zerolog.ErrorLevel, e.fields, format, args)
}

func emit(level zerolog.Level, fields Fields, format string, args []any) {
	mu.RLock()
	l := base
	mu.RUnlock()

	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(map[string]any(fields))
	}
	ev.Msgf(format, args...)
}
