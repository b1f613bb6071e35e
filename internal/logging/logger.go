// Package logging provides structured logging for the Bioristor solver
// service on top of zap.
package logging

import (
	"context"
	"io"
	"maps"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger represents an active logging object. Fields are passed as maps and
// converted to zap fields in key order.
type Logger struct {
	zl *zap.Logger
}

// New creates a JSON Logger writing entries at or above level to output.
func New(level zapcore.Level, output io.Writer) *Logger {
	core := zapcore.NewCore(newEncoder("json"), zapcore.AddSync(output), level)
	return NewWithCore(core)
}

// NewWithCore wraps an existing zap core, e.g. an observer in tests.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// WithFields returns a new Logger with the specified fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With(toZap(fields)...)}
}

// WithField returns a new Logger with the specified key-value pair.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With(zap.Any(key, value))}
}

// WithError returns a new Logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With(zap.Error(err))}
}

// Debug logs a message at DebugLevel.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.zl.Debug(msg, first(fields)...)
}

// Info logs a message at InfoLevel.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.zl.Info(msg, first(fields)...)
}

// Warn logs a message at WarnLevel.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.zl.Warn(msg, first(fields)...)
}

// Error logs a message at ErrorLevel.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.zl.Error(msg, first(fields)...)
}

// Fatal logs a message at FatalLevel then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.zl.Fatal(msg, first(fields)...)
}

func first(fields []map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	return toZap(fields[0])
}

func toZap(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// CtxLogger is a logger that can be used with context.
type CtxLogger struct {
	*Logger
}

// FromContext returns a logger from the context or a new one if none exists.
func FromContext(ctx context.Context) *CtxLogger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*CtxLogger); ok {
		return logger
	}
	l, _ := NewLogger(DefaultConfig())
	return &CtxLogger{l}
}

// WithContext returns a new context with the logger.
func (l *CtxLogger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}

type ctxLoggerKey struct{}
