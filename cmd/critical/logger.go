package main

import (
	"io"
	"log/slog"

	"github.com/fwojciec/critical"
	critslog "github.com/fwojciec/critical/slog"
	critzap "github.com/fwojciec/critical/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

// cliLogger is the logger commands report through, in the engine's form
// and as a *slog.Logger for decorators.
type cliLogger struct {
	Logger critical.Logger
	Slog   *slog.Logger

	close func() error
}

func (l *cliLogger) Close() error {
	return l.close()
}

// newLogger builds the logger selected by flags. The console format logs
// through zap; text and json through log/slog.
func newLogger(flags LogFlags, stderr io.Writer) (*cliLogger, error) {
	level := critical.LogLevel(flags.Level)
	if _, err := critical.ParseLogLevel(flags.Level); err != nil {
		return nil, err
	}

	if flags.Format == "console" {
		z, err := critzap.NewLogger(critzap.Config{
			Level:      level,
			Console:    stderr,
			NoColor:    flags.NoColor,
			File:       flags.File,
			MaxSizeMB:  logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
		})
		if err != nil {
			return nil, err
		}
		// Decorators log at debug level.
		s := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: critslog.Level(level)}))
		return &cliLogger{Logger: z, Slog: s, close: z.Close}, nil
	}

	w := stderr
	closeFn := func() error { return nil }
	if flags.File != "" {
		file := &lumberjack.Logger{
			Filename:   flags.File,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
		}
		w = io.MultiWriter(stderr, file)
		closeFn = file.Close
	}
	handlerOpts := &slog.HandlerOptions{Level: critslog.Level(level)}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if flags.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	s := slog.New(handler)
	return &cliLogger{Logger: critslog.NewLogger(s), Slog: s, close: closeFn}, nil
}
