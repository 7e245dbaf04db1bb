// Package logging is the leveled logger shared by the CLI, the experiment
// runner and the run store.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(lv))
}

// DefaultLogger formats lines as "[prefix] LEVEL: message". Debug and info
// go to the info writer, warnings and errors to the error writer. Debug
// lines are dropped unless enabled.
type DefaultLogger struct {
	prefix string
	debug  atomic.Bool
	info   *log.Logger
	errs   *log.Logger
}

// New logs to stderr only, keeping stdout free for command output.
func New(prefix string, debug bool) *DefaultLogger {
	return NewWithWriters(prefix, debug, os.Stderr, os.Stderr)
}

func NewWithWriters(prefix string, debug bool, info, errs io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		prefix: prefix,
		info:   log.New(info, "", flags),
		errs:   log.New(errs, "", flags),
	}
	l.debug.Store(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

// Logf writes one line at lv.
func (l *DefaultLogger) Logf(lv Level, format string, args ...any) {
	if lv == LevelDebug && !l.debug.Load() {
		return
	}
	dst := l.info
	if lv >= LevelWarn {
		dst = l.errs
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		dst.Printf("%s: %s", lv, msg)
		return
	}
	dst.Printf("[%s] %s: %s", l.prefix, lv, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.Logf(LevelDebug, format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.Logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.Logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.Logf(LevelError, format, args...) }

type nopLogger struct{}

// Nop discards everything. Use it when a caller passes a nil Logger.
func Nop() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
