// Package logger prints debug diagnostics and request lines to a writer.
// What gets printed is gated by the debug flag and the logging level from
// the config file.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/mcncl/skjson/internal/config"
)

// Logging levels
const (
	LevelQuiet    = 0
	LevelRequests = 1
	LevelVerbose  = 2
	LevelTrace    = 3
)

// Logger writes gated log lines. The zero value discards everything.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	debug  bool
	level  int
	prefix string
}

// New creates a Logger writing to out.
func New(out io.Writer, debug bool, level int, prefix string) *Logger {
	return &Logger{out: out, debug: debug, level: level, prefix: prefix}
}

// FromConfig creates a Logger writing to stderr using the config options.
func FromConfig(cfg *config.Config) *Logger {
	return New(os.Stderr, cfg.Debug, cfg.LoggingLevel, cfg.RequestPrefix)
}

// Discard returns a Logger that prints nothing.
func Discard() *Logger {
	return New(io.Discard, false, LevelQuiet, "")
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// IsDebug returns true if verbose error logging is enabled.
func (l *Logger) IsDebug() bool {
	if l == nil {
		return false
	}
	return l.debug
}

func (l *Logger) printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Error prints err when debug is enabled. A stack trace follows at the
// trace level.
func (l *Logger) Error(err error, context string) {
	if err == nil || !l.IsDebug() {
		return
	}
	if context != "" {
		l.printf("[ERROR] %s: %v", context, err)
	} else {
		l.printf("[ERROR] %v", err)
	}
	if l.level >= LevelTrace {
		l.printf("%s", debug.Stack())
	}
}

// Request prints a completed request line from the requests level up.
func (l *Logger) Request(method, url, elapsed string) {
	if l == nil || l.level < LevelRequests {
		return
	}
	l.printf("%s: %s request was send to '%s' and takes %s", l.prefix, method, url, elapsed)
}

// Debugf prints a message when debug is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.IsDebug() {
		return
	}
	l.printf("[DEBUG] "+format, args...)
}

// Infof prints a message from the verbose level up.
func (l *Logger) Infof(format string, args ...any) {
	if l == nil || l.level < LevelVerbose {
		return
	}
	l.printf("[INFO] "+format, args...)
}

// Warnf prints a message from the requests level up.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.level < LevelRequests {
		return
	}
	l.printf("[WARN] "+format, args...)
}
