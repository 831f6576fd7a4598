// Package log provides the relay's leveled logger. Every package in this
// module logs through the package-level T/D/I/W/E/F loggers rather than the
// standard library log package directly, so verbosity can be controlled at
// runtime by config.C.LogLevel (see pkg/app/config).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level is the relay's log verbosity, ordered from quietest to loudest.
type Level int

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

func (l Level) String() string {
	switch l {
	case Fatal:
		return "fatal"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	default:
		return "off"
	}
}

// ParseLevel parses the vocabulary accepted by config.C.LogLevel:
// fatal, error, warn, info, debug, trace.
func ParseLevel(s string) (l Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal":
		return Fatal, true
	case "error":
		return Error, true
	case "warn", "warning":
		return Warn, true
	case "info":
		return Info, true
	case "debug":
		return Debug, true
	case "trace":
		return Trace, true
	}
	return Off, false
}

var current = Info

// SetLogLevel sets the process-wide log level from the config vocabulary.
// An unrecognised value is ignored and the previous level is kept.
func SetLogLevel(s string) {
	if l, ok := ParseLevel(s); ok {
		current = l
	}
}

// Logger is a single leveled logger, one instance per level (T, D, I, W, E, F
// below). It is safe to call from multiple goroutines.
type Logger struct {
	level Level
	label string
	col   *color.Color
	out   io.Writer
}

func newLogger(level Level, label string, attrs ...color.Attribute) *Logger {
	return &Logger{level: level, label: label, col: color.New(attrs...), out: os.Stderr}
}

func (l *Logger) enabled() bool { return current >= l.level }

// F writes a printf-style message at this logger's level.
func (l *Logger) F(format string, args ...any) {
	if !l.enabled() {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Ln writes its arguments space-joined at this logger's level.
func (l *Logger) Ln(args ...any) {
	if !l.enabled() {
		return
	}
	l.write(fmt.Sprintln(args...))
}

// C writes a lazily-computed message: the closure only runs when this
// logger's level is enabled, which matters for trace-level messages that
// serialize whole events.
func (l *Logger) C(f func() string) {
	if !l.enabled() {
		return
	}
	l.write(f())
}

func (l *Logger) write(msg string) {
	ts := time.Now().Format("15:04:05.000")
	_, _ = l.col.Fprintf(l.out, "%s [%s] %s\n", ts, l.label, strings.TrimRight(msg, "\n"))
}

var (
	// T is the trace-level logger: per-message wire traffic, verbose detail.
	T = newLogger(Trace, "trc", color.FgHiBlack)
	// D is the debug-level logger.
	D = newLogger(Debug, "dbg", color.FgCyan)
	// I is the info-level logger: startup, lifecycle, notable events.
	I = newLogger(Info, "inf", color.FgGreen)
	// W is the warn-level logger.
	W = newLogger(Warn, "wrn", color.FgYellow)
	// E is the error-level logger.
	E = newLogger(Error, "err", color.FgRed)
	// F is the fatal-level logger. Callers terminate the process themselves
	// after logging; this package never calls os.Exit on their behalf.
	F = newLogger(Fatal, "ftl", color.FgHiRed, color.Bold)
)
