package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger implements Logger on top of zap.
type zapLogger struct {
	z *zap.Logger
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "source",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch strings.ToLower(format) {
	case "text", "console":
		return zapcore.NewConsoleEncoder(ec)
	default:
		return zapcore.NewJSONEncoder(ec)
	}
}

func (l *zapLogger) Debug(msg string, args ...any) {
	l.z.Debug(msg, fields(args)...)
}

func (l *zapLogger) Info(msg string, args ...any) {
	l.z.Info(msg, fields(args)...)
}

func (l *zapLogger) Warn(msg string, args ...any) {
	l.z.Warn(msg, fields(args)...)
}

func (l *zapLogger) Error(msg string, args ...any) {
	l.z.Error(msg, fields(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{z: l.z.With(fields(args)...)}
}

// WithContext returns a logger carrying the request and user ids found in ctx.
func (l *zapLogger) WithContext(ctx context.Context) Logger {
	var fs []zap.Field
	if id := RequestIDFromContext(ctx); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if id, ok := UserIDFromContext(ctx); ok {
		fs = append(fs, zap.Int64("user_id", id))
	}
	if len(fs) == 0 {
		return l
	}
	return &zapLogger{z: l.z.With(fs...)}
}

// fields converts alternating key/value pairs into redacted zap fields.
// A trailing key without a value is logged under "!BADKEY".
func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); {
		if f, ok := args[i].(zap.Field); ok {
			out = append(out, f)
			i++
			continue
		}

		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			out = append(out, zap.Any("!BADKEY", args[i]))
			i++
			continue
		}
		out = append(out, field(key, args[i+1]))
		i += 2
	}
	return out
}

func field(key string, value any) zap.Field {
	switch v := value.(type) {
	case string:
		return zap.String(key, redact(key, v))
	case error:
		return zap.String(key, redact(key, v.Error()))
	case fmt.Stringer:
		return zap.String(key, redact(key, v.String()))
	default:
		return zap.Any(key, v)
	}
}
