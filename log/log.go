package log

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level for log
type Level int

const (
	_ = iota
	// Debug level
	Debug Level = iota + 1
	// Info level
	Info
	// Warn level
	Warn
	// Error level
	Error
	//DPanic level
	DPanic
	//Panic level
	Panic
	//Fatal level
	Fatal
)

// Logger is what level.X(ctx) hands back: structured (L) or template (F) logging.
type Logger interface {
	L(string, ...zapcore.Field)
	F(string, ...interface{})
}

// Config holding log config
type Config struct {
	Level    string `json:"level" mapstructure:"level" yaml:"level"`
	Mode     string `json:"mode" mapstructure:"mode" yaml:"mode"`
	Encoding string `json:"encoding" mapstructure:"encoding" yaml:"encoding"`
}

// DefaultConfig of logger, should set default mode to production to avoid mistake
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Mode:     "production",
		Encoding: "json",
	}
}

type levelMap map[string]zapcore.Level

func (lm levelMap) get(level string) (zapcore.Level, bool) {
	if lvl, ok := lm[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl, ok
	}
	return zapcore.InfoLevel, false
}

var zapLevelMap = levelMap{
	"debug":   zap.DebugLevel,
	"info":    zap.InfoLevel,
	"warn":    zap.WarnLevel,
	"warning": zap.WarnLevel,
	"error":   zap.ErrorLevel,
	"dpanic":  zap.DPanicLevel,
	"panic":   zap.PanicLevel,
	"fatal":   zap.FatalLevel,
}

// Build construct zap Logger by config
func (c Config) Build(opts ...zap.Option) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if c.Mode == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, ok := zapLevelMap.get(c.Level); ok {
		zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	}

	switch c.Encoding {
	case "json", "console":
		zapConfig.Encoding = c.Encoding
	}

	return zapConfig.Build(opts...)
}

// ToContext attaches logger to ctx so that level.X(ctx) and the nap library pick it up.
// A nil logger leaves ctx untouched.
func ToContext(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return ctxzap.ToContext(ctx, logger)
}

// FromContext returns the logger carried by ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return ctxzap.Extract(ctx)
}
