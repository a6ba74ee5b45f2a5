package handlers

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/session"
)

// panelHandler renders the side panel: the gallery list and the show mode select (GET /viewer/panel)
func (h *Handler) panelHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "PanelHandler", attribute.String("handler", "panel"))
	defer h.endSpan(span)

	_, s, _, err := h.sessionFor(ctx, w, r, span)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to load session")
		h.renderTemplate(w, r, "panel", panelData{Modes: gallery.ShowModes, Error: err.Error()})
		return
	}

	data := panelData{
		Modes:    gallery.ShowModes,
		Settings: s.Settings(),
	}

	galleries, err := h.service.ListGalleries(ctx)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to list galleries")
		data.Error = err.Error()
	}
	data.Galleries = galleries
	span.SetAttributes(attribute.Int("galleries.count", len(galleries)))

	if !isHTMX(r) {
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		h.renderJSON(w, r, status, data)
		return
	}
	h.renderTemplate(w, r, "panel", data)
}

// saveSettingsHandler stores the settings and reloads the images (POST /viewer/settings)
func (h *Handler) saveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r.Context(), "SaveSettingsHandler", attribute.String("handler", "save_settings"))
	defer h.endSpan(span)

	id, s, _, err := h.sessionFor(ctx, w, r, span)
	if err != nil {
		h.handleError(ctx, span, err, "Failed to load session")
		h.renderError(w, r, session.View{Index: -1}, err)
		return
	}

	settings, err := parseSettingsForm(r)
	if err != nil {
		h.handleError(ctx, span, err, "Invalid settings form")
		h.renderError(w, r, s.Current(), err)
		return
	}
	span.SetAttributes(
		attribute.String("settings.gallery", settings.SelectedGallery),
		attribute.String("settings.show_mode", string(settings.ShowMode)),
		attribute.Bool("settings.shuffle", settings.ShufflePicsWhenLoaded),
	)

	saved, view, err := s.SaveSettings(ctx, settings)
	h.persist(ctx, id, s)

	if saved {
		// the side panel reloads itself on this event
		w.Header().Set("HX-Trigger", "settings-saved")
		span.AddEvent("settings_saved")
	}

	if err != nil {
		h.handleError(ctx, span, err, "Failed to save settings")
		h.renderError(w, r, view, err)
		return
	}

	h.logger.Info(ctx).
		Str("viewer_id", id).
		Str("gallery", settings.SelectedGallery).
		Str("show_mode", string(settings.ShowMode)).
		Int("images", view.Count).
		Msg("Settings saved")

	span.SetStatus(codes.Ok, "")
	h.renderView(w, r, view)
}

func parseSettingsForm(r *http.Request) (gallery.Settings, error) {
	if err := r.ParseForm(); err != nil {
		return gallery.Settings{}, err
	}

	mode, err := gallery.ParseShowMode(r.PostFormValue("show_mode"))
	if err != nil {
		return gallery.Settings{}, err
	}

	settings := gallery.Settings{
		SelectedGallery:       strings.TrimSpace(r.PostFormValue("selected_gallery")),
		ShowMode:              mode,
		ShufflePicsWhenLoaded: isChecked(r.PostFormValue("shuffle_pics_when_loaded")),
	}
	return settings, settings.Validate()
}

func isChecked(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
