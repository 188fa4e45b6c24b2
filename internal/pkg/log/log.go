package log

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type Logger interface {
	Debug(ctx context.Context, message string, args ...interface{})
	Info(ctx context.Context, message string, args ...interface{})
	Warn(ctx context.Context, message string, args ...interface{})
	Error(ctx context.Context, message string, args ...interface{})
}

var global *otelzap.Logger

// Setup builds the trace-aware zap logger used across the service.
func Setup() *otelzap.Logger {
	zapLogger, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return otelzap.New(zapLogger, otelzap.WithMinLevel(zap.InfoLevel))
}

func SetupLogger() *otelzap.Logger {
	return Setup()
}

func Init(l *otelzap.Logger) {
	global = l
}

func GetLogger() Logger {
	if global == nil {
		Init(Setup())
	}
	return &logger{base: global}
}

type logger struct {
	base *otelzap.Logger
}

func (l *logger) Debug(ctx context.Context, message string, args ...interface{}) {
	l.base.Ctx(ctx).Debug(message, fields(args)...)
}

func (l *logger) Info(ctx context.Context, message string, args ...interface{}) {
	l.base.Ctx(ctx).Info(message, fields(args)...)
}

func (l *logger) Warn(ctx context.Context, message string, args ...interface{}) {
	l.base.Ctx(ctx).Warn(message, fields(args)...)
}

func (l *logger) Error(ctx context.Context, message string, args ...interface{}) {
	l.base.Ctx(ctx).Error(message, fields(args)...)
}

func fields(args []interface{}) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(args))
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any("detail", arg))
	}
	return out
}
