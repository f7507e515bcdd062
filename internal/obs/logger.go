package obs

import (
	"fmt"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is a minimal logging interface for observability.
type Logger interface {
	Logf(level Level, format string, args ...interface{})
}

// FieldLogger is a Logger that can carry key/value context.
type FieldLogger interface {
	Logger
	With(key, value string) Logger
}

// With returns l with key=value attached when l supports fields, and l
// unchanged otherwise.
func With(l Logger, key, value string) Logger {
	if fl, ok := l.(FieldLogger); ok {
		return fl.With(key, value)
	}
	return l
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...interface{}) {}

// Zerolog adapts a zerolog.Logger.
type Zerolog struct {
	L zerolog.Logger
}

func NewZerolog(l zerolog.Logger) Zerolog { return Zerolog{L: l} }

func (z Zerolog) Logf(level Level, format string, args ...interface{}) {
	var ev *zerolog.Event
	switch level {
	case Debug:
		ev = z.L.Debug()
	case Info:
		ev = z.L.Info()
	case Warn:
		ev = z.L.Warn()
	default:
		ev = z.L.Error()
	}
	if ev == nil {
		return
	}
	ev.Msg(fmt.Sprintf(format, args...))
}

func (z Zerolog) With(key, value string) Logger {
	return Zerolog{L: z.L.With().Str(key, value).Logger()}
}

// ParseLevel maps a level name onto a zerolog level; unknown names are an
// error.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}
