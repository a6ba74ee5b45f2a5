package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testConfig() Config {
	return Config{
		ServiceName:    "gallery-viewer",
		ServiceVersion: "test",
		Environment:    "test",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_ServiceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(testConfig(), &buf)

	logger.Info(context.Background()).Str("gallery", "cats").Msg("images loaded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "images loaded", entry["message"])
	assert.Equal(t, "gallery-viewer", entry["service"])
	assert.Equal(t, "cats", entry["gallery"])
	assert.NotContains(t, entry, "trace_id")
}

func TestLogger_TraceCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(testConfig(), &buf)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.Error(ctx).Err(errors.New("boom")).Msg("failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	config := testConfig()
	config.LogLevel = "warn"
	logger := NewLoggerWithWriter(config, &buf)

	logger.Info(context.Background()).Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn(context.Background()).Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(testConfig(), &buf).With("component", "tui")

	logger.Info(context.Background()).Msg("started")
	assert.Equal(t, "tui", decodeLine(t, &buf)["component"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("debug").String())
	assert.Equal(t, "warn", parseLogLevel("warning").String())
	assert.Equal(t, "info", parseLogLevel("verbose").String())
}
