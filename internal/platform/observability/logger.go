package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// NewLogger constructs a JSON logger using Cloud Logging field names. LOG_LEVEL overrides the level.
func NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	cfg := zap.Config{
		Level:    level,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			TimeKey:    "timestamp",
			LevelKey:   "severity",
			EncodeTime: zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(strings.ToUpper(level.String()))
			},
			CallerKey:     "caller",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			StacktraceKey: "stacktrace",
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// EventLogger adapts zap to the func(ctx, event, fields) hook services accept.
// The request-scoped logger on ctx is preferred so entries carry request and trace ids.
// Failure-like events log at warn and the rest at debug.
func EventLogger(base *zap.Logger, component string) func(ctx context.Context, event string, fields map[string]any) {
	if base == nil {
		base = zap.NewNop()
	}
	named := base.Named(component)
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := named
		if requestctx.HasLogger(ctx) {
			logger = requestctx.Logger(ctx).Named(component)
		}
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			if err, ok := v.(error); ok {
				zFields = append(zFields, zap.NamedError(k, err))
				continue
			}
			zFields = append(zFields, zap.Any(k, v))
		}
		if isFailureEvent(event) {
			logger.Warn(component+" event", zFields...)
			return
		}
		logger.Debug(component+" event", zFields...)
	}
}

func isFailureEvent(event string) bool {
	for _, suffix := range []string{".failed", ".error", ".panic", ".fallback"} {
		if strings.HasSuffix(event, suffix) {
			return true
		}
	}
	return false
}

// PrintfAdapter adapts zap to the context-aware printf logger go-redis expects.
type PrintfAdapter struct {
	logger *zap.SugaredLogger
}

// NewPrintfAdapter creates a PrintfAdapter backed by the supplied logger.
func NewPrintfAdapter(logger *zap.Logger) PrintfAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return PrintfAdapter{logger: logger.Sugar()}
}

// Printf logs the formatted client message at warn level; go-redis only reports connection trouble here.
func (a PrintfAdapter) Printf(_ context.Context, format string, args ...any) {
	a.logger.Warnf(strings.TrimSpace(format), args...)
}
