// Package logger provides component-scoped structured logging for waclaw,
// backed by zerolog.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// SetLevel sets the minimum level emitted by the package logger.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(zerologLevel(l))
}

// SetOutput redirects the package logger, keeping the current level.
// Mainly used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Logger().Level(log.GetLevel())
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func DebugC(component, msg string) {
	l := logger()
	l.Debug().Str("component", component).Msg(msg)
}

func DebugCF(component, msg string, fields map[string]any) {
	l := logger()
	l.Debug().Str("component", component).Fields(fields).Msg(msg)
}

func InfoC(component, msg string) {
	l := logger()
	l.Info().Str("component", component).Msg(msg)
}

func InfoCF(component, msg string, fields map[string]any) {
	l := logger()
	l.Info().Str("component", component).Fields(fields).Msg(msg)
}

func WarnC(component, msg string) {
	l := logger()
	l.Warn().Str("component", component).Msg(msg)
}

func WarnCF(component, msg string, fields map[string]any) {
	l := logger()
	l.Warn().Str("component", component).Fields(fields).Msg(msg)
}

func ErrorC(component, msg string) {
	l := logger()
	l.Error().Str("component", component).Msg(msg)
}

func ErrorCF(component, msg string, fields map[string]any) {
	l := logger()
	l.Error().Str("component", component).Fields(fields).Msg(msg)
}
