// Package zap provides the command line logger: colored console output
// with an optional rotated log file.
package zap

import (
	"io"
	"os"

	"github.com/fwojciec/critical"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Ensure Logger implements critical.Logger.
var _ critical.Logger = (*Logger)(nil)

// Config configures a Logger.
type Config struct {
	Level critical.LogLevel

	// Console receives colored output. Defaults to os.Stderr.
	Console io.Writer
	NoColor bool

	// File, when set, also writes every message to a rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Logger is a critical.Logger over zap.
type Logger struct {
	logger *zap.Logger
	file   *lumberjack.Logger
}

// NewLogger creates a Logger from cfg.
func NewLogger(cfg Config) (*Logger, error) {
	level, err := critical.ParseLogLevel(string(cfg.Level))
	if err != nil {
		return nil, err
	}
	enabled := levelEnabler(level)

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = zapcore.OmitKey
	if cfg.NoColor {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(console)), enabled),
	}

	l := &Logger{}
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		fc := zap.NewDevelopmentEncoderConfig()
		fc.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fc), zapcore.AddSync(l.file), enabled))
	}
	l.logger = zap.New(zapcore.NewTee(cores...))
	return l, nil
}

func levelEnabler(level critical.LogLevel) zapcore.LevelEnabler {
	switch level {
	case critical.LevelDebug:
		return zapcore.DebugLevel
	case critical.LevelWarn:
		return zapcore.WarnLevel
	case critical.LevelError:
		return zapcore.ErrorLevel
	case critical.LevelSilent:
		return zap.LevelEnablerFunc(func(zapcore.Level) bool { return false })
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, pid critical.ProcessID) {
	l.logger.Debug(critical.FormatMessage(msg, pid))
}

func (l *Logger) Info(msg string, pid critical.ProcessID) {
	l.logger.Info(critical.FormatMessage(msg, pid))
}

func (l *Logger) Warn(msg string, pid critical.ProcessID) {
	l.logger.Warn(critical.FormatMessage(msg, pid))
}

func (l *Logger) Error(msg string, pid critical.ProcessID) {
	l.logger.Error(critical.FormatMessage(msg, pid))
}

// Close flushes buffered output and closes the log file.
func (l *Logger) Close() error {
	_ = l.logger.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
