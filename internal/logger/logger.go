package logger

import (
	"io"
	"log/slog"
	"os"
)

const (
	DEBUG = 4
	INFO  = 3
	WARN  = 2
	ERROR = 1
)

type Logger struct {
	base     *slog.Logger
	slog     *slog.Logger
	LogLevel byte
}

func New(LogLevel byte, packageStr string) *Logger {
	return NewWithWriter(os.Stderr, LogLevel, packageStr)
}

// NewWithWriter is New writing to w instead of stderr.
func NewWithWriter(w io.Writer, LogLevel byte, packageStr string) *Logger {
	if LogLevel < ERROR || LogLevel > DEBUG {
		LogLevel = DEBUG
	}
	base := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(LogLevel)}))
	return &Logger{
		base:     base,
		slog:     base.With("pkg", packageStr),
		LogLevel: LogLevel,
	}
}

// Named returns a logger sharing the handler but tagged with another package.
func (lg *Logger) Named(packageStr string) *Logger {
	return &Logger{base: lg.base, slog: lg.base.With("pkg", packageStr), LogLevel: lg.LogLevel}
}

func slogLevel(level byte) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (lg *Logger) Debug(message string, args ...any) {
	lg.slog.Debug(message, args...)
}

func (lg *Logger) Info(message string, args ...any) {
	lg.slog.Info(message, args...)
}

func (lg *Logger) Warn(message string, args ...any) {
	lg.slog.Warn(message, args...)
}

func (lg *Logger) Error(message string, args ...any) {
	lg.slog.Error(message, args...)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, ERROR, "discard")
}
