// Package picker is the HTTP client of the remote picker service, the
// collaborator that owns galleries, settings, marks and image files.
package picker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/observability"
)

const (
	instrumentationName = "gallery-viewer/picker"

	// maxErrorBody bounds the response body kept in a ServiceError
	maxErrorBody = 512

	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Client implements gallery.Service over HTTP. It keeps a cookie jar because
// the service stores the settings in its own session.
type Client struct {
	baseURL   *url.URL
	publicURL *url.URL
	http      *http.Client
	logger    *observability.Logger

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ gallery.Service = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a
// cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for debug output of each call
func WithLogger(logger *observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for client spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithMeter sets the meter used for call metrics
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) {
		c.initMetrics(meter)
	}
}

// New creates a client for the service described by cfg
func New(cfg config.PickerConfig, opts ...Option) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse picker base URL: %w", err)
	}

	publicURL := baseURL
	if cfg.PublicURL != "" {
		if publicURL, err = url.Parse(strings.TrimRight(cfg.PublicURL, "/")); err != nil {
			return nil, fmt.Errorf("parse picker public URL: %w", err)
		}
	}

	c := &Client{
		baseURL:   baseURL,
		publicURL: publicURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    observability.NopLogger(),
		tracer:    otel.Tracer(instrumentationName),
	}
	c.initMetrics(otel.Meter(instrumentationName))

	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

// initMetrics creates the instruments. Failures leave them nil and the
// client keeps working without metrics.
func (c *Client) initMetrics(meter metric.Meter) {
	requests, err := meter.Int64Counter(
		"picker.client.requests",
		metric.WithDescription("Calls made to the picker service"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		requests = nil
	}

	duration, err := meter.Float64Histogram(
		"picker.client.duration",
		metric.WithDescription("Duration of calls to the picker service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		duration = nil
	}

	c.requests = requests
	c.duration = duration
}

// ListGalleries returns every gallery of the service
func (c *Client) ListGalleries(ctx context.Context) ([]gallery.Gallery, error) {
	var galleries []gallery.Gallery
	if _, err := c.do(ctx, "list_galleries", http.MethodGet, c.endpoint("galleries/"), nil, &galleries); err != nil {
		return nil, err
	}
	return galleries, nil
}

// GetSettings returns the settings stored in the service session
func (c *Client) GetSettings(ctx context.Context) (gallery.Settings, error) {
	var settings gallery.Settings
	if _, err := c.do(ctx, "get_settings", http.MethodGet, c.endpoint("settings/"), nil, &settings); err != nil {
		return gallery.Settings{}, err
	}
	return settings, nil
}

// SaveSettings posts settings once. Any failure yields false.
func (c *Client) SaveSettings(ctx context.Context, settings gallery.Settings) (bool, error) {
	if _, err := c.do(ctx, "save_settings", http.MethodPost, c.endpoint("settings/"), settings, nil); err != nil {
		return false, err
	}
	return true, nil
}

// ListImages returns the images of a gallery filtered by mode, with URLs
// resolved against the public base URL
func (c *Client) ListImages(ctx context.Context, gallerySlug string, mode gallery.ShowMode) ([]gallery.Image, error) {
	u := c.endpoint("galleries", gallerySlug, "images/")
	u.RawQuery = url.Values{"show_mode": {string(mode)}}.Encode()

	var images []gallery.Image
	if _, err := c.do(ctx, "list_images", http.MethodGet, u, nil, &images); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, gallery.ErrEmptyResult
	}

	for i := range images {
		images[i].URL = c.resolveImageURL(images[i].URL)
	}
	return images, nil
}

// MarkImage flags an image as reviewed
func (c *Client) MarkImage(ctx context.Context, gallerySlug, imageName string) (gallery.Image, error) {
	return c.setMark(ctx, "mark_image", gallerySlug, imageName, "mark")
}

// UnmarkImage clears the reviewed flag
func (c *Client) UnmarkImage(ctx context.Context, gallerySlug, imageName string) (gallery.Image, error) {
	return c.setMark(ctx, "unmark_image", gallerySlug, imageName, "unmark")
}

func (c *Client) setMark(ctx context.Context, op, gallerySlug, imageName, action string) (gallery.Image, error) {
	var img gallery.Image
	if _, err := c.do(ctx, op, http.MethodPost, c.endpoint("galleries", gallerySlug, "images", imageName, action), nil, &img); err != nil {
		return gallery.Image{}, err
	}
	img.URL = c.resolveImageURL(img.URL)
	return img, nil
}

// DeleteImage removes an image from the gallery
func (c *Client) DeleteImage(ctx context.Context, gallerySlug, imageName string) (bool, error) {
	status, err := c.do(ctx, "delete_image", http.MethodPost, c.endpoint("delete-image", gallerySlug, imageName), nil, nil)
	if err != nil {
		return false, err
	}
	return status >= 200 && status < 300, nil
}

// Ping checks that the service answers
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, c.endpoint("galleries/"), nil, nil)
	return err
}

// endpoint joins path elements to the base URL. Image names may contain
// slashes and are kept as nested path segments.
func (c *Client) endpoint(elem ...string) *url.URL {
	escaped := make([]string, len(elem))
	for i, e := range elem {
		segments := strings.Split(e, "/")
		for j, s := range segments {
			segments[j] = url.PathEscape(s)
		}
		escaped[i] = strings.Join(segments, "/")
	}
	return c.baseURL.JoinPath(escaped...)
}

func (c *Client) resolveImageURL(raw string) string {
	if raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	return c.publicURL.ResolveReference(ref).String()
}

// do runs one call: a client span, metrics, a debug log line and the
// mapping of failures onto NetworkError and ServiceError
func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body, out any) (status int, err error) {
	ctx, span := c.tracer.Start(ctx, "picker."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(u.String()),
			attribute.String("picker.operation", op),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		c.record(ctx, op, status, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}()

	req, err := c.newRequest(ctx, method, u, body)
	if err != nil {
		return 0, &gallery.NetworkError{Op: op, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &gallery.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	if status < 200 || status > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return status, &gallery.ServiceError{
			Op:         op,
			StatusCode: status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || status == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return status, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return status, &gallery.ServiceError{
			Op:         op,
			StatusCode: status,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	return status, nil
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// the service rejects unsafe methods without the token once its session is authenticated
	if method != http.MethodGet && c.http.Jar != nil {
		for _, cookie := range c.http.Jar.Cookies(u) {
			if cookie.Name == csrfCookie {
				req.Header.Set(csrfHeader, cookie.Value)
				break
			}
		}
	}

	return req, nil
}

func (c *Client) record(ctx context.Context, op string, status int, err error, elapsed time.Duration) {
	outcome := "ok"
	var netErr *gallery.NetworkError
	switch {
	case errors.As(err, &netErr):
		outcome = "network_error"
	case err != nil:
		outcome = "service_error"
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
		attribute.String("status", strconv.Itoa(status)),
	)
	if c.requests != nil {
		c.requests.Add(ctx, 1, attrs)
	}
	if c.duration != nil {
		c.duration.Record(ctx, elapsed.Seconds(), attrs)
	}

	event := c.logger.Debug(ctx)
	if err != nil {
		event = c.logger.Warn(ctx).Err(err)
	}
	event.
		Str("operation", op).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("picker call")
}
