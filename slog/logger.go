// Package slog adapts log/slog to critical: a Logger writing through a
// *slog.Logger and a Processor decorator logging every call.
package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/critical"
)

// Ensure Logger implements critical.Logger.
var _ critical.Logger = (*Logger)(nil)

// Logger forwards engine diagnostics to a *slog.Logger. The process id is
// attached as the "pid" attribute instead of a message prefix.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new Logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Debug(msg string, pid critical.ProcessID) { l.log(slog.LevelDebug, msg, pid) }
func (l *Logger) Info(msg string, pid critical.ProcessID)  { l.log(slog.LevelInfo, msg, pid) }
func (l *Logger) Warn(msg string, pid critical.ProcessID)  { l.log(slog.LevelWarn, msg, pid) }
func (l *Logger) Error(msg string, pid critical.ProcessID) { l.log(slog.LevelError, msg, pid) }

func (l *Logger) log(level slog.Level, msg string, pid critical.ProcessID) {
	if pid == "" {
		l.logger.Log(context.Background(), level, msg)
		return
	}
	l.logger.Log(context.Background(), level, msg, "pid", string(pid))
}

// Level maps a critical log level to its slog counterpart. Silent maps
// above every level slog emits.
func Level(level critical.LogLevel) slog.Level {
	switch level {
	case critical.LevelDebug:
		return slog.LevelDebug
	case critical.LevelWarn:
		return slog.LevelWarn
	case critical.LevelError:
		return slog.LevelError
	case critical.LevelSilent:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}
