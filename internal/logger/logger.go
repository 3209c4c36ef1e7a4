package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with colored console helpers
type Logger struct {
	*logrus.Logger
	green  *color.Color
	cyan   *color.Color
	red    *color.Color
	yellow *color.Color

	file *os.File
}

// Options configures a Logger
type Options struct {
	Level string    // debug, info, warn, error (default info)
	File  string    // Optional file the log is appended to
	Out   io.Writer // Console writer (default stderr)
}

// New creates a logger. Stdout is never used so that the MCP channel stays clean.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		Logger: logrus.New(),
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
	}

	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006/01/02 15:04:05",
		FullTimestamp:   true,
		DisableSorting:  true,
	})

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		out = io.MultiWriter(out, f)
	}
	l.SetOutput(out)

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if os.Getenv("DEBUG") == "true" {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	return l, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	l, _ := New(Options{Out: io.Discard})
	return l
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Success prints a green line to w
func (l *Logger) Success(w io.Writer, format string, args ...any) {
	l.green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Progress prints a cyan arrow line to w without a newline
func (l *Logger) Progress(w io.Writer, format string, args ...any) {
	l.cyan.Fprintf(w, "→ "+format, args...)
}

// Failure prints a red line to w
func (l *Logger) Failure(w io.Writer, format string, args ...any) {
	l.red.Fprintf(w, "✗ "+format+"\n", args...)
}

// Alert prints a yellow warning line to w
func (l *Logger) Alert(w io.Writer, format string, args ...any) {
	l.yellow.Fprintf(w, "⚠ "+format+"\n", args...)
}
