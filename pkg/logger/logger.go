// Package logger provides component-scoped structured logging for obridge.
//
// Every log line carries a component tag ("pipeline", "transport.ws", ...)
// so that a single daemon log remains greppable per concern. The *F variants
// attach structured fields; keys are emitted in sorted order.
package logger

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger()
)

func newLogger() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

// SetDebug toggles debug-level output.
func SetDebug(debug bool) {
	mu.Lock()
	defer mu.Unlock()
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log = log.Level(level)
}

// SetOutput redirects all output, primarily for tests.
func SetOutput(w *os.File) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}

func emit(e *zerolog.Event, component, msg string, fields map[string]any) {
	e = e.Str("component", component)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e = e.Interface(k, fields[k])
	}
	e.Msg(msg)
}

func DebugC(component, msg string) { DebugCF(component, msg, nil) }

func DebugCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Debug(), component, msg, fields)
}

func InfoC(component, msg string) { InfoCF(component, msg, nil) }

func InfoCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Info(), component, msg, fields)
}

func WarnC(component, msg string) { WarnCF(component, msg, nil) }

func WarnCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Warn(), component, msg, fields)
}

func ErrorC(component, msg string) { ErrorCF(component, msg, nil) }

func ErrorCF(component, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Error(), component, msg, fields)
}
