package mock

import "github.com/fwojciec/critical"

var _ critical.Logger = (*Logger)(nil)

// Logger is a mock implementation of critical.Logger.
type Logger struct {
	DebugFn func(msg string, pid critical.ProcessID)
	InfoFn  func(msg string, pid critical.ProcessID)
	WarnFn  func(msg string, pid critical.ProcessID)
	ErrorFn func(msg string, pid critical.ProcessID)
}

func (l *Logger) Debug(msg string, pid critical.ProcessID) {
	l.DebugFn(msg, pid)
}

func (l *Logger) Info(msg string, pid critical.ProcessID) {
	l.InfoFn(msg, pid)
}

func (l *Logger) Warn(msg string, pid critical.ProcessID) {
	l.WarnFn(msg, pid)
}

func (l *Logger) Error(msg string, pid critical.ProcessID) {
	l.ErrorFn(msg, pid)
}
