package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/observability"
	"gallery-viewer/internal/services"
	"gallery-viewer/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// pinger is implemented by the picker client
type pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	container *services.Container
	registry  *session.Registry
	service   gallery.Service
	picker    pinger
	logger    *observability.Logger

	tracer    trace.Tracer
	meter     metric.Meter
	templates *template.Template
}

// Option configures a Handler
type Option func(*Handler)

// WithTracer sets the tracer used for server and handler spans
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

// WithMeter sets the meter used for HTTP metrics
func WithMeter(meter metric.Meter) Option {
	return func(h *Handler) {
		h.meter = meter
	}
}

func New(container *services.Container, opts ...Option) (*Handler, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"showModeLabel": showModeLabel,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	h := &Handler{
		container: container,
		registry:  container.Registry(),
		service:   container.Service(),
		picker:    container.Picker(),
		logger:    container.Logger().With("component", "web"),
		tracer:    otel.Tracer(observability.InstrumentationName),
		meter:     otel.Meter(observability.InstrumentationName),
		templates: templates,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.TracingMiddleware(h.tracer))
	if metrics, err := observability.NewHTTPMetrics(h.meter); err == nil {
		r.Use(observability.MetricsMiddleware(metrics))
	} else {
		h.logger.Warn(context.Background()).Err(err).Msg("HTTP metrics disabled")
	}

	r.Get("/healthz", h.healthzHandler)
	r.Get("/readyz", h.readyzHandler)

	r.Get("/", h.indexHandler)

	r.Route("/viewer", func(r chi.Router) {
		r.Get("/state", h.stateHandler)
		r.Get("/panel", h.panelHandler)
		r.Post("/settings", h.saveSettingsHandler)

		r.Post("/next", h.actionHandler("next", selectNext))
		r.Post("/prev", h.actionHandler("previous", selectPrevious))
		r.Post("/random", h.actionHandler("random", selectRandom))
		r.Post("/mark", h.actionHandler("mark", (*session.Session).MarkCurrent))
		r.Post("/unmark", h.actionHandler("unmark", (*session.Session).UnmarkCurrent))
		r.Post("/delete", h.deleteHandler)
	})

	return r
}

func (h *Handler) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return h.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (h *Handler) endSpan(span trace.Span) {
	span.End()
}

// handleError logs err and records it on span. Expected conditions such as
// an empty gallery are logged at info level and leave the span status unset.
func (h *Handler) handleError(ctx context.Context, span trace.Span, err error, msg string) {
	if gallery.IsExpected(err) {
		span.AddEvent("expected_condition", trace.WithAttributes(attribute.String("reason", err.Error())))
		h.logger.Info(ctx).Err(err).Msg(msg)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	h.logger.Error(ctx).Err(err).Msg(msg)
}
