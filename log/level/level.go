package level

import (
	"context"

	"github.com/dungnh3/requestable/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultCallerSkip = 1
)

// ZapWrapper to short syntax
type ZapWrapper struct {
	*zap.Logger
	Level log.Level
}

// L logging message to stderr/stdout
func (zl *ZapWrapper) L(msg string, fields ...zapcore.Field) {
	switch zl.Level {
	case log.Debug:
		zl.Debug(msg, fields...)
	case log.Info:
		zl.Info(msg, fields...)
	case log.Warn:
		zl.Warn(msg, fields...)
	case log.Error:
		zl.Error(msg, fields...)
	case log.DPanic:
		zl.DPanic(msg, fields...)
	case log.Panic:
		zl.Panic(msg, fields...)
	case log.Fatal:
		zl.Fatal(msg, fields...)
	}
}

// F logging format message with template
func (zl *ZapWrapper) F(template string, args ...interface{}) {
	sugar := zl.Sugar()
	switch zl.Level {
	case log.Debug:
		sugar.Debugf(template, args...)
	case log.Info:
		sugar.Infof(template, args...)
	case log.Warn:
		sugar.Warnf(template, args...)
	case log.Error:
		sugar.Errorf(template, args...)
	case log.DPanic:
		sugar.DPanicf(template, args...)
	case log.Panic:
		sugar.Panicf(template, args...)
	case log.Fatal:
		sugar.Fatalf(template, args...)
	}
}

// With returns a copy of ctx whose logger carries the given fields on every entry.
func With(ctx context.Context, fields ...zapcore.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return log.ToContext(ctx, log.FromContext(ctx).With(fields...))
}

//Debug return Debug logger
func Debug(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.Debug, defaultCallerSkip)
}

//Info return Info logger
func Info(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.Info, defaultCallerSkip)
}

// Warn return warning logger
func Warn(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.Warn, defaultCallerSkip)
}

//Error return Error logger
func Error(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.Error, defaultCallerSkip)
}

// DPanic return DPanic logger for development
func DPanic(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.DPanic, defaultCallerSkip)
}

// Panic return panic logger
func Panic(ctx context.Context) log.Logger {
	return yieldLogger(ctx, log.Panic, defaultCallerSkip)
}

func yieldLogger(ctx context.Context, level log.Level, callerSkip int) log.Logger {
	return &ZapWrapper{
		Logger: log.FromContext(ctx).WithOptions(zap.AddCallerSkip(callerSkip)),
		Level:  level,
	}
}
