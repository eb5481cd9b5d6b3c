// Package logger wraps zap with request-aware helpers.
//
// A request-scoped *Logger travels in the context (see Into). The package
// level Debug/Info/Warn/Error functions log through it, adding the request
// ID, trace ID and operator of the current call.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "pharmapos/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors
	OutputPaths []string
}

// New builds a Logger. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	z, err := zc.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var (
	fallbackOnce sync.Once
	fallback     *Logger
)

// fallbackLogger is used when no Logger was put into the context.
func fallbackLogger() *Logger {
	fallbackOnce.Do(func() {
		l, err := New(Config{Level: "info", OutputPaths: []string{"stderr"}})
		if err != nil {
			l = NewNop()
		}
		fallback = l
	})
	return fallback
}

// ForContext returns l with the request fields of ctx attached.
func (l *Logger) ForContext(ctx context.Context) *Logger {
	r, ok := appctx.RequestFrom(ctx)
	if !ok {
		return l
	}

	kv := []any{"request_id", r.ID, "trace_id", r.TraceID}
	if r.Operator != "" {
		kv = append(kv, "operator", r.Operator)
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// With adds key-value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{l.SugaredLogger.With(kv...)}
}

// Named adds a component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{l.SugaredLogger.With("component", component)}
}

type ctxKey struct{}

// Into stores l in ctx.
func Into(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the Logger stored in ctx with request fields attached.
func From(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = fallbackLogger()
	}
	return l.ForContext(ctx)
}

func emit(ctx context.Context, level zapcore.Level, msg string, kv []any) {
	l := From(ctx)
	switch level {
	case zapcore.DebugLevel:
		l.Debugw(msg, kv...)
	case zapcore.WarnLevel:
		l.Warnw(msg, kv...)
	case zapcore.ErrorLevel:
		l.Errorw(msg, kv...)
	default:
		l.Infow(msg, kv...)
	}
}

func Debug(ctx context.Context, msg string, kv ...any) { emit(ctx, zapcore.DebugLevel, msg, kv) }
func Info(ctx context.Context, msg string, kv ...any)  { emit(ctx, zapcore.InfoLevel, msg, kv) }
func Warn(ctx context.Context, msg string, kv ...any)  { emit(ctx, zapcore.WarnLevel, msg, kv) }
func Error(ctx context.Context, msg string, kv ...any) { emit(ctx, zapcore.ErrorLevel, msg, kv) }
