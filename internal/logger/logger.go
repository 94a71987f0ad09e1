// Package logger provides a simple leveled logger for the application.
// It supports three levels: off (no output), normal (info/warn/error),
// and verbose (includes debug). Output is encoded by zap; the logger is
// safe for concurrent use.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// ParseLevel maps "off", "normal" and "verbose" to a Level. Unknown
// names fall back to LevelNormal.
func ParseLevel(name string) Level {
	switch name {
	case "off", "quiet":
		return LevelOff
	case "verbose", "debug":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// Logger is a leveled logger. All methods are safe for concurrent use.
type Logger struct {
	mu    sync.RWMutex
	level Level
	atom  zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// New creates a logger with the given level, writing to the given output.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	atom := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		atom,
	)

	return &Logger{
		level: level,
		atom:  atom,
		sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.atom.SetLevel(zapLevel(level))
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	if l.enabled(LevelVerbose) {
		l.sugar.Debugf(format, args...)
	}
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	if l.enabled(LevelNormal) {
		l.sugar.Infof(format, args...)
	}
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	if l.enabled(LevelNormal) {
		l.sugar.Warnf(format, args...)
	}
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	if l.enabled(LevelNormal) {
		l.sugar.Errorf(format, args...)
	}
}

// Sync flushes any buffered output.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) enabled(min Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= min
}

// zapLevel maps a Level to the minimum zap level it lets through.
// LevelOff is gated in enabled, so any level works for the core.
func zapLevel(level Level) zapcore.Level {
	if level >= LevelVerbose {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
