package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger wraps zerolog with OpenTelemetry trace correlation
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a logger writing to stdout
func NewLogger(config Config) *Logger {
	return NewLoggerWithWriter(config, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to out. The terminal viewer
// uses it to keep log lines off the screen.
func NewLoggerWithWriter(config Config, out io.Writer) *Logger {
	output := out
	if config.LogFormat == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}
	}

	baseLogger := zerolog.New(output).
		Level(parseLogLevel(config.LogLevel)).
		With().
		Timestamp().
		Str("service", config.ServiceName).
		Str("version", config.ServiceVersion).
		Str("environment", config.Environment).
		Logger()

	return &Logger{
		logger: baseLogger,
	}
}

// NopLogger discards everything
func NopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// parseLogLevel converts string log level to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext returns a logger with trace context information
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.logger

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		logger = logger.With().
			Str("trace_id", spanCtx.TraceID().String()).
			Str("span_id", spanCtx.SpanID().String()).
			Bool("trace_sampled", spanCtx.IsSampled()).
			Logger()
	}

	return &logger
}

// Info returns an info level event with trace context
func (l *Logger) Info(ctx context.Context) *zerolog.Event {
	return l.WithContext(ctx).Info()
}

// Debug returns a debug level event with trace context
func (l *Logger) Debug(ctx context.Context) *zerolog.Event {
	return l.WithContext(ctx).Debug()
}

// Warn returns a warn level event with trace context
func (l *Logger) Warn(ctx context.Context) *zerolog.Event {
	return l.WithContext(ctx).Warn()
}

// Error returns an error level event with trace context
func (l *Logger) Error(ctx context.Context) *zerolog.Event {
	return l.WithContext(ctx).Error()
}

// With returns a logger carrying an extra string field
func (l *Logger) With(key, value string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(key, value).Logger(),
	}
}

// OTELErrorHandler returns a function that handles OTEL errors using structured logging
func (l *Logger) OTELErrorHandler() func(error) {
	return func(err error) {
		l.logger.Error().
			Err(err).
			Str("source", "otel_sdk").
			Msg("OpenTelemetry SDK error")
	}
}
