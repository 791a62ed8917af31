package critical

// Logger receives diagnostics. pid is empty when the caller gave none.
type Logger interface {
	Debug(msg string, pid ProcessID)
	Info(msg string, pid ProcessID)
	Warn(msg string, pid ProcessID)
	Error(msg string, pid ProcessID)
}

// LogLevel is the minimum level a LevelLogger emits.
type LogLevel string

const (
	LevelDebug  LogLevel = "debug"
	LevelInfo   LogLevel = "info"
	LevelWarn   LogLevel = "warn"
	LevelError  LogLevel = "error"
	LevelSilent LogLevel = "silent"
)

var levelRank = map[LogLevel]int{
	LevelDebug:  0,
	LevelInfo:   1,
	LevelWarn:   2,
	LevelError:  3,
	LevelSilent: 4,
}

// ParseLogLevel validates s as a level name. An empty string is info.
func ParseLogLevel(s string) (LogLevel, error) {
	if s == "" {
		return LevelInfo, nil
	}
	l := LogLevel(s)
	if _, ok := levelRank[l]; !ok {
		return "", Errorf(EINVALID, "unknown log level %q", s)
	}
	return l, nil
}

// LevelLogger dispatches each level to its own function.
type LevelLogger struct {
	DebugFn func(msg string, pid ProcessID)
	InfoFn  func(msg string, pid ProcessID)
	WarnFn  func(msg string, pid ProcessID)
	ErrorFn func(msg string, pid ProcessID)
}

var _ Logger = (*LevelLogger)(nil)

func (l *LevelLogger) Debug(msg string, pid ProcessID) { l.DebugFn(msg, pid) }
func (l *LevelLogger) Info(msg string, pid ProcessID)  { l.InfoFn(msg, pid) }
func (l *LevelLogger) Warn(msg string, pid ProcessID)  { l.WarnFn(msg, pid) }
func (l *LevelLogger) Error(msg string, pid ProcessID) { l.ErrorFn(msg, pid) }

// SetVerbosity returns a logger that forwards to logger every level at or
// above level and discards the rest.
func SetVerbosity(logger Logger, level LogLevel) *LevelLogger {
	min, ok := levelRank[level]
	if !ok {
		min = levelRank[LevelInfo]
	}
	pick := func(l LogLevel, fn func(string, ProcessID)) func(string, ProcessID) {
		if levelRank[l] < min {
			return func(string, ProcessID) {}
		}
		return fn
	}
	return &LevelLogger{
		DebugFn: pick(LevelDebug, logger.Debug),
		InfoFn:  pick(LevelInfo, logger.Info),
		WarnFn:  pick(LevelWarn, logger.Warn),
		ErrorFn: pick(LevelError, logger.Error),
	}
}

// FormatMessage prefixes msg with the process id when there is one.
func FormatMessage(msg string, pid ProcessID) string {
	if pid == "" {
		return msg
	}
	return "[" + string(pid) + "] " + msg
}
