package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/session"
)

var errConfirmationRequired = errors.New("delete must be confirmed")

// paneData feeds the image pane. Error replaces the image when set.
type paneData struct {
	View   session.View
	Error  string
	Notice bool
}

type pageData struct {
	Pane paneData
}

type panelData struct {
	Galleries []gallery.Gallery  `json:"galleries"`
	Modes     []gallery.ShowMode `json:"modes"`
	Settings  gallery.Settings   `json:"settings"`
	Error     string             `json:"error,omitempty"`
}

type errorResponse struct {
	Error string        `json:"error"`
	View  *session.View `json:"view,omitempty"`
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusFor maps an error onto the status of a JSON response
func statusFor(err error) int {
	var (
		netErr *gallery.NetworkError
		svcErr *gallery.ServiceError
	)
	switch {
	case errors.Is(err, gallery.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, gallery.ErrConfigurationRequired), errors.Is(err, session.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoImageSelected),
		errors.Is(err, gallery.ErrInvalidSettings),
		errors.Is(err, errConfirmationRequired):
		return http.StatusBadRequest
	case errors.As(err, &netErr), errors.As(err, &svcErr),
		errors.Is(err, gallery.ErrNotSaved), errors.Is(err, gallery.ErrNotDeleted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the viewer. Expected conditions show the
// sentinel text without the wrapping operation names.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, gallery.ErrEmptyResult):
		return gallery.ErrEmptyResult.Error()
	case errors.Is(err, gallery.ErrConfigurationRequired):
		return gallery.ErrConfigurationRequired.Error()
	default:
		return err.Error()
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error(r.Context()).Err(err).Str("template", name).Msg("Template error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn(r.Context()).Err(err).Msg("Failed to encode response")
	}
}

// renderView writes the image pane for htmx requests and the view as JSON otherwise
func (h *Handler) renderView(w http.ResponseWriter, r *http.Request, view session.View) {
	if isHTMX(r) {
		h.renderTemplate(w, r, "pane", paneData{View: view})
		return
	}
	h.renderJSON(w, r, http.StatusOK, view)
}

// renderError replaces the image pane with an error panel. htmx swaps only
// successful responses, so the panel is sent with status 200.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, view session.View, err error) {
	msg := errorMessage(err)
	if isHTMX(r) {
		h.renderTemplate(w, r, "pane", paneData{View: view, Error: msg, Notice: gallery.IsExpected(err)})
		return
	}
	h.renderJSON(w, r, statusFor(err), errorResponse{Error: msg, View: &view})
}

func showModeLabel(mode gallery.ShowMode) string {
	switch mode {
	case gallery.ShowModeAll:
		return "All pictures"
	case gallery.ShowModeUnmarked:
		return "Unmarked only"
	case gallery.ShowModeMarked:
		return "Marked only"
	default:
		return string(mode)
	}
}
