// Package stdlogger adapts the global zerolog logger to printf style and leveled
// logger interfaces expected by third-party libraries such as asynq.
package stdlogger

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards to the global zerolog logger at the time of each call.
type Logger struct {
	component string
}

// New returns a logger without component tag.
func New() *Logger {
	return &Logger{}
}

// NewComponent returns a logger tagging every entry with the component name.
func NewComponent(name string) *Logger {
	return &Logger{component: name}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.event(zerolog.DebugLevel).Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.event(zerolog.InfoLevel).Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	l.event(zerolog.WarnLevel).Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.event(zerolog.ErrorLevel).Msgf(format, args...)
}

// Debug logs at debug level.
func (l *Logger) Debug(args ...any) {
	l.event(zerolog.DebugLevel).Msg(fmt.Sprint(args...))
}

// Info logs at info level.
func (l *Logger) Info(args ...any) {
	l.event(zerolog.InfoLevel).Msg(fmt.Sprint(args...))
}

// Warn logs at warn level.
func (l *Logger) Warn(args ...any) {
	l.event(zerolog.WarnLevel).Msg(fmt.Sprint(args...))
}

// Error logs at error level.
func (l *Logger) Error(args ...any) {
	l.event(zerolog.ErrorLevel).Msg(fmt.Sprint(args...))
}

// Fatal logs at fatal level and exits the process.
func (l *Logger) Fatal(args ...any) {
	log.Fatal().Str("component", l.component).Msg(fmt.Sprint(args...))
}
