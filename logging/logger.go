// Package logging provides the structured logger used across the autonomy
// core, wrapping zap the way go.viam.com/rdk/logging wraps it.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger is the logging surface every component accepts at construction.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
}

type zapLogger struct {
	*zap.SugaredLogger
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{l.SugaredLogger.Named(name)}
}

// NewLogger builds a production logger tagged with name.
func NewLogger(name string) Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{l.Sugar().Named(name)}
}

// NewTestLogger returns a logger that writes to tb's log, for use in tests.
func NewTestLogger(tb testing.TB) Logger {
	return &zapLogger{zaptest.NewLogger(tb).Sugar()}
}

// NewNopLogger discards all output; useful for benchmarks and examples.
func NewNopLogger() Logger {
	return &zapLogger{zap.NewNop().Sugar()}
}
