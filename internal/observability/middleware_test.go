package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func instrumentedRouter(t *testing.T, recorder *tracetest.SpanRecorder, reader sdkmetric.Reader) http.Handler {
	t.Helper()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewHTTPMetrics(mp.Meter(InstrumentationName))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(TracingMiddleware(tp.Tracer(InstrumentationName)))
	r.Use(MetricsMiddleware(metrics))
	r.Post("/viewer/{action}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/viewer/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestTracingMiddleware_NamesSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	router := instrumentedRouter(t, recorder, sdkmetric.NewManualReader())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/viewer/next", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/viewer/broken", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2, "health checks are not traced")

	assert.Equal(t, "POST /viewer/{action}", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, "GET /viewer/broken", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	router := instrumentedRouter(t, tracetest.NewSpanRecorder(), reader)

	for range 3 {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/viewer/random", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "http.server.request.count" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), total)
}
