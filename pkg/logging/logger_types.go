package logging

import (
	"io"
	"strings"
	"sync"
)

// Level is the minimum severity a logger will emit.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a config string to a Level. Unrecognized values fall back
// to InfoLevel rather than failing, so a typo in config degrades loudly
// (everything at info) instead of silencing the process.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "info", "":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

// Field is one structured key/value attached to a log line.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging surface the rest of the codebase depends on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that attaches the given fields to every
	// line it emits.
	With(fields ...Field) Logger
}

// JSONLogger writes one flat JSON object per line: ts, level, msg, then any
// bound and per-call fields at the top level.
type JSONLogger struct {
	mu     sync.Mutex
	writer io.Writer
	level  Level
	bound  []Field
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}
